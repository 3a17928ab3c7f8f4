package models

// WebSocket event types
const (
	EventReportCreated   = ActionReportCreated
	EventReportDismissed = ActionReportDismissed
	EventPenaltyApplied  = ActionPenaltyApplied
	EventPing            = "ping"
	EventPong            = "pong"
	EventError           = "error"
)

type WSMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type WSErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
