package listener

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/pixil98/go-testutil"
)

type rwPair struct {
	io.Reader
	io.Writer
}

func TestCRLFReadWriter(t *testing.T) {
	tests := map[string]struct {
		in      string
		expRead string
	}{
		"telnet line endings":  {in: "look\r\nn\r\n", expRead: "look\nn\n"},
		"bare carriage return": {in: "look\rn\r", expRead: "look\nn\n"},
		"unix line endings":    {in: "look\n", expRead: "look\n"},
		"telnet cr nul":        {in: "look\r\x00n\r\x00", expRead: "look\nn\n"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rw := newCRLFReadWriter(rwPair{Reader: bytes.NewBufferString(tt.in), Writer: io.Discard})
			got, err := io.ReadAll(rw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "read", string(got), tt.expRead)
		})
	}

	split := newCRLFReadWriter(rwPair{Reader: &chunkReader{chunks: []string{"look\r", "\nn\r", "\n"}}, Writer: io.Discard})
	got, err := io.ReadAll(split)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "split pair", string(got), "look\nn\n")

	var out bytes.Buffer
	rw := newCRLFReadWriter(rwPair{Reader: &bytes.Buffer{}, Writer: &out})
	n, err := rw.Write([]byte("a\nb\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "written length", n, 5)
	testutil.AssertEqual(t, "written", out.String(), "a\r\nb\r\n")
}

// chunkReader returns one chunk per Read.
type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (r *blockingRunner) RunSession(ctx context.Context, conn io.ReadWriter) error {
	close(r.started)
	<-r.release
	return nil
}

func TestConnectionManager_Open(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	cm := NewConnectionManager(r)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cm.AcceptConnection(context.Background(), "test", rwPair{Reader: &bytes.Buffer{}, Writer: io.Discard})
	}()

	<-r.started
	testutil.AssertEqual(t, "open", cm.Open(), 1)
	close(r.release)
	<-done
	testutil.AssertEqual(t, "closed", cm.Open(), 0)
}
