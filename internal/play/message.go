package play

import "quiz-master/internal/session"

type IntentType string

const (
	IntentSelect   = IntentType("select")
	IntentSkip     = IntentType("skip")
	IntentNext     = IntentType("next")
	IntentPrevious = IntentType("previous")
	IntentSubmit   = IntentType("submit")
	IntentRetry    = IntentType("retry")
)

type MessageType string

const (
	MessageTypeSnapshot = MessageType("snapshot")
	MessageTypeResults  = MessageType("results")
	MessageTypeIgnored  = MessageType("ignored") // intent not applicable in the current state
	MessageTypeError    = MessageType("error")
)

// ClientMessage is one player intent.
type ClientMessage struct {
	Type   IntentType `json:"type"`
	Option *int       `json:"option,omitempty"` // only for select
}

// ServerMessage is pushed after every transition and countdown tick.
type ServerMessage struct {
	Type MessageType `json:"type"`

	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Results  *session.Summary  `json:"results,omitempty"`

	Intent IntentType `json:"intent,omitempty"`
	Error  string     `json:"error,omitempty"`
}
