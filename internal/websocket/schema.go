package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionKey        Action = "key"
	ActionCommand    Action = "command"
	ActionToggleMute Action = "toggle_mute"
	ActionHeartbeat  Action = "heartbeat"
	ActionPing       Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// KeyRequest forwards one keyboard event from the session screen. The
// server decides what, if anything, the key does.
type KeyRequest struct {
	Action       Action `json:"action"`
	Key          string `json:"key"`
	FromEditable bool   `json:"from_editable"`
}

// Command names the explicit (non-keyboard) session commands.
type Command string

const (
	CommandSelect      Command = "select"
	CommandClear       Command = "clear"
	CommandReveal      Command = "reveal"
	CommandNavigate    Command = "navigate"
	CommandPause       Command = "pause"
	CommandResume      Command = "resume"
	CommandRequestExit Command = "request_exit"
)

// CommandRequest carries one session command. OptionIDs applies to select,
// Delta to navigate.
type CommandRequest struct {
	Action    Action   `json:"action"`
	Command   Command  `json:"command"`
	OptionIDs []string `json:"option_ids,omitempty"`
	Delta     int      `json:"delta,omitempty"`
}

// ToggleMuteRequest flips the user's sound preference.
type ToggleMuteRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState      Event = "state"
	EventTick       Event = "tick"
	EventCue        Event = "cue"
	EventRevealed   Event = "revealed"
	EventStatus     Event = "status"
	EventResult     Event = "result"
	EventExitPrompt Event = "exit_prompt"
	EventExpired    Event = "expired"
	EventMute       Event = "mute_changed"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

// StateResponse is the full client-safe session snapshot, sent once on
// attach so a reconnecting client can rebuild its screen.
type StateResponse struct {
	Event   Event       `json:"event"`
	Session interface{} `json:"session"`
	Muted   bool        `json:"muted"`
}

// TickResponse is the per-second timer beat. RemainingSeconds is -1 for
// untimed sessions.
type TickResponse struct {
	Event            Event `json:"event"`
	ElapsedSeconds   int   `json:"elapsed_seconds"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

// CueResponse tells the client to play an audio clip.
type CueResponse struct {
	Event Event  `json:"event"`
	Cue   string `json:"cue"`
	Clip  string `json:"clip"`
}

// RevealedResponse carries the answer key material released by a reveal.
type RevealedResponse struct {
	Event            Event    `json:"event"`
	Index            int      `json:"index"`
	IsCorrect        bool     `json:"is_correct"`
	CorrectOptionIDs []string `json:"correct_option_ids"`
	Explanation      string   `json:"explanation"`
}

// StatusResponse announces a session status change.
type StatusResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// ResultResponse carries the final summary when the session finishes.
type ResultResponse struct {
	Event  Event       `json:"event"`
	Result interface{} `json:"result"`
}

// ExitPromptResponse asks the client to show its exit confirmation.
type ExitPromptResponse struct {
	Event Event `json:"event"`
}

// ExpiredResponse announces the countdown hit zero.
type ExpiredResponse struct {
	Event Event `json:"event"`
}

// MuteResponse announces the new mute flag after a toggle.
type MuteResponse struct {
	Event Event `json:"event"`
	Muted bool  `json:"muted"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
