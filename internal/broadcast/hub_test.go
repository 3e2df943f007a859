package broadcast

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/MichelPescina/JogoTesto/internal/game"
	"github.com/MichelPescina/JogoTesto/internal/messaging"
)

// memoryBus delivers synchronously on the publishing goroutine.
type memoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func([]byte)
}

func newMemoryBus() *memoryBus {
	return &memoryBus{subs: make(map[string]map[int]func([]byte))}
}

func (b *memoryBus) Publish(subject string, data []byte) error {
	b.mu.Lock()
	var handlers []func([]byte)
	for _, h := range b.subs[subject] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()
	for _, h := range handlers {
		h(data)
	}
	return nil
}

func (b *memoryBus) Subscribe(subject string, handler func([]byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.subs[subject] == nil {
		b.subs[subject] = make(map[int]func([]byte))
	}
	b.subs[subject][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[subject], id)
	}, nil
}

type inbox struct {
	mu    sync.Mutex
	types []string
}

func (i *inbox) deliver(data []byte) {
	var ev struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(data, &ev)
	i.mu.Lock()
	defer i.mu.Unlock()
	i.types = append(i.types, ev.Type)
}

func (i *inbox) String() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return fmt.Sprint(i.types)
}

func attach(t *testing.T, h *Hub, id string) (*inbox, *Attachment) {
	t.Helper()
	in := &inbox{}
	a, err := h.Attach(id, in.deliver)
	if err != nil {
		t.Fatalf("attach %s: %v", id, err)
	}
	return in, a
}

func TestHub_ScopedPublish(t *testing.T) {
	h := NewHub(newMemoryBus())
	a, _ := attach(t, h, "a")
	b, _ := attach(t, h, "b")
	c, _ := attach(t, h, "c")

	room := game.RoomScope("m1", "hall")
	h.Subscribe(game.MatchScope("m1"), "a")
	h.Subscribe(game.MatchScope("m1"), "b")
	h.Subscribe(room, "a")
	h.Subscribe(room, "b")

	h.Publish(game.MatchScope("m1"), game.Event{Type: game.EventMatchStarted})
	h.Publish(room, game.Event{Type: game.EventRoomChat}, "a")
	h.SendTo("c", game.Event{Type: game.EventWeaponFound})

	testutil.AssertEqual(t, "a", a.String(), "[match-started]")
	testutil.AssertEqual(t, "b", b.String(), "[match-started room-chat-message]")
	testutil.AssertEqual(t, "c", c.String(), "[weapon-found]")

	h.Unsubscribe(room, "b")
	h.Unsubscribe(room, "b")
	testutil.AssertEqual(t, "members", fmt.Sprint(h.Members(room)), "[a]")
}

func TestHub_Lobby(t *testing.T) {
	h := NewHub(newMemoryBus(), WithNow(func() time.Time { return time.Unix(0, 0) }))
	a, _ := attach(t, h, "a")
	b, _ := attach(t, h, "b")

	h.Lobby(game.EventLobbyChat, game.ChatData{Text: "hi"}, "b")
	h.Shutdown("maintenance")

	testutil.AssertEqual(t, "a", a.String(), "[lobby-chat-message server-shutdown]")
	testutil.AssertEqual(t, "b", b.String(), "[server-shutdown]")

	members := h.Members(game.LobbyScope)
	sort.Strings(members)
	testutil.AssertEqual(t, "lobby", fmt.Sprint(members), "[a b]")
}

func TestHub_AttachTakeover(t *testing.T) {
	h := NewHub(newMemoryBus())
	first, a1 := attach(t, h, "a")
	second, a2 := attach(t, h, "a")

	select {
	case <-a1.Done():
	default:
		t.Fatal("first attachment should be closed by the takeover")
	}
	testutil.AssertEqual(t, "connected", h.Connected(), 1)

	h.Notify("a", game.EventPong, nil)
	testutil.AssertEqual(t, "old connection", first.String(), "[]")
	testutil.AssertEqual(t, "new connection", second.String(), "[pong]")

	a1.Detach()
	testutil.AssertEqual(t, "stale detach keeps new", h.Attached("a"), true)

	a2.Detach()
	a2.Detach()
	testutil.AssertEqual(t, "detached", h.Attached("a"), false)
	testutil.AssertEqual(t, "none connected", h.Connected(), 0)
}

func TestHub_SubscriptionsOutliveConnection(t *testing.T) {
	h := NewHub(newMemoryBus())
	_, a := attach(t, h, "a")
	h.Subscribe(game.MatchScope("m1"), "a")
	a.Detach()

	h.Publish(game.MatchScope("m1"), game.Event{Type: game.EventCountdownUpdate})

	back, _ := attach(t, h, "a")
	h.Publish(game.MatchScope("m1"), game.Event{Type: game.EventMatchStarted})
	testutil.AssertEqual(t, "only new events", back.String(), "[match-started]")
}

func TestHub_OverNats(t *testing.T) {
	s, err := messaging.NewNatsServer(messaging.WithInProcess())
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	if err := s.Connect(); err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(s.Close)

	h := NewHub(s)
	got := make(chan []byte, 8)
	if _, err := h.Attach("a", func(data []byte) { got <- data }); err != nil {
		t.Fatalf("attach: %v", err)
	}
	h.Subscribe(game.MatchScope("m1"), "a")

	for seq := uint64(1); seq <= 3; seq++ {
		h.Publish(game.MatchScope("m1"), game.Event{Type: game.EventCountdownUpdate, MatchID: "m1", Seq: seq})
	}
	_ = s.Flush()

	for exp := uint64(1); exp <= 3; exp++ {
		select {
		case data := <-got:
			var ev game.Event
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("decoding: %v", err)
			}
			testutil.AssertEqual(t, "seq", ev.Seq, exp)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for seq %d", exp)
		}
	}
}
