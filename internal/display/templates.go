package display

// eventTemplates holds one named template per outbound event type. Event
// types with no template are not shown on terminals. A template that
// renders only whitespace is dropped as well.
const eventTemplates = `
{{- define "room" -}}
{{ .name }}
{{ .description }}
Exits: {{ if .exits }}{{ join ", " .exits }}{{ else }}none{{ end }}.
{{- with others .players }}
Here: {{ join ", " . }}.{{ end }}
{{- with .weapon }}
Something lies here: {{ .name }}.{{ end }}
{{- end -}}

{{- define "session-assigned" -}}
Type "join <name>" to enter a match, or "help" for commands.
{{- end -}}

{{- define "match-assigned" -}}
You are in match {{ .matchId }}.
To resume after a disconnect: reconnect {{ .matchId }} {{ .playerId }} {{ .sessionToken }}
{{- end -}}

{{- define "match-joined" -}}
{{ who .player.id | cap }} joined the match ({{ .players }}/{{ .maxPlayers }} players, {{ .minPlayers }} needed).
{{- end -}}

{{- define "match-left" -}}
{{ who .player.id | cap }} left the match ({{ .players }} remaining).
{{- end -}}

{{- define "match-full" -}}
The match is full.
{{- end -}}

{{- define "countdown-started" -}}
The match begins in {{ .remaining }} seconds.
{{- end -}}

{{- define "countdown-update" -}}
{{ if or (le (int .remaining) 5) (eq (mod (int .remaining) 5) 0) }}{{ .remaining }}...{{ end }}
{{- end -}}

{{- define "countdown-cancelled" -}}
Countdown cancelled: {{ .players }} players, {{ .minPlayers }} needed.
{{- end -}}

{{- define "match-started" -}}
The match has begun! {{ len .players }} players enter. Only one leaves.
{{- end -}}

{{- define "match-ended" -}}
The match is over ({{ .reason }}). {{ if .winnerId }}{{ who .winnerId | cap }} won{{ else }}Nobody won{{ end }} after {{ .duration }}.
{{- range $i, $s := .standings }}
{{ add1 $i }}. {{ $s.name }}: {{ $s.kills }} kills{{ if $s.alive }}, alive{{ end }}{{ end }}
{{- end -}}

{{- define "match-status" -}}
{{ if not .matchId }}You are not in a match.{{ else -}}
Match {{ .matchId }} is {{ .state }}: {{ .alive }} alive, {{ .minPlayers }}-{{ .maxPlayers }} players.
{{- with .countdownRemaining }} Starting in {{ . }} seconds.{{ end }}
{{- with .you }}
You: {{ .status }}, strength {{ .strength }}, {{ .kills }} kills{{ with .weapon }}, wielding {{ .name }} (+{{ .damage }}){{ end }}.{{ end }}
{{- with .room }}
{{ template "room" . }}{{ end }}
{{- end }}
{{- end -}}

{{- define "room-update" -}}
{{ template "room" . }}
{{- end -}}

{{- define "player-entered-room" -}}
{{ if not (self .player.id) }}{{ .player.name }} arrives {{ from .direction }}.{{ end }}
{{- end -}}

{{- define "player-left-room" -}}
{{ if not (self .player.id) }}{{ .player.name }} leaves {{ toward .direction }}.{{ end }}
{{- end -}}

{{- define "search-started" -}}
{{ if self .player.id }}You start searching the room.{{ else }}{{ .player.name }} starts searching the room.{{ end }}
{{- end -}}

{{- define "search-completed" -}}
{{ if self .player.id }}{{ if not .found }}You find nothing.{{ end -}}
{{ else if .found }}{{ .player.name }} picks up {{ .weapon.name }}.{{ else }}{{ .player.name }} finds nothing.{{ end }}
{{- end -}}

{{- define "weapon-found" -}}
You found {{ .weapon.name }} (+{{ .weapon.damage }} damage)!{{ with .weapon.description }} {{ . }}{{ end }}
{{- end -}}

{{- define "combat-initiated" -}}
{{ if self .defenderId }}{{ .attackerName }} attacks you! Type "fight" or "flee".
{{- else }}You attack {{ .defenderName }} and wait for a response.{{ end }}
{{- end -}}

{{- define "combat-result" -}}
{{ if eq .outcome "auto-win" }}{{ who .winnerId | cap }} struck down {{ who .loserId }} without a fight.
{{- else if eq .outcome "fought" }}{{ who .attackerId | cap }} ({{ .attackerPower }}) fought {{ who .defenderId }} ({{ .defenderPower }}). {{ who .winnerId | cap }} won.
{{- else if eq .outcome "escaped" }}{{ who .runnerId | cap }} fled the fight.
{{- else if eq .outcome "escape-failed" }}{{ who .runnerId | cap }} tried to flee and was cut down.
{{- else }}The fight between {{ who .attackerId }} and {{ who .defenderId }} was called off.{{ end }}
{{- end -}}

{{- define "player-died" -}}
{{ if self .player.id }}You have died.{{ else }}{{ .player.name }} died{{ with .killerId }}{{ if self . }} by your hand{{ else }} at the hands of {{ who . }}{{ end }}{{ end }}.{{ end }}
{{- end -}}

{{- define "player-disconnected" -}}
{{ .player.name }} lost their connection.
{{- end -}}

{{- define "player-reconnected" -}}
{{ .player.name }} is back.
{{- end -}}

{{- define "player-renamed" -}}
{{ if self .playerId }}You are now known as {{ .newName }}.{{ else }}{{ .oldName }} is now known as {{ .newName }}.{{ end }}
{{- end -}}

{{- define "room-chat-message" -}}
{{ if self .fromId }}You say{{ else }}{{ .from }} says{{ end }}: {{ .text }}
{{- end -}}

{{- define "lobby-chat-message" -}}
[lobby] {{ .from }}: {{ .text }}
{{- end -}}

{{- define "error" -}}
{{ .message }}
{{- end -}}

{{- define "server-shutdown" -}}
The server is shutting down ({{ .reason }}).
{{- end -}}

{{- define "pong" -}}
pong
{{- end -}}
`
