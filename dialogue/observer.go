package dialogue

import "github.com/avi-assistant/avicore/observability"

// Reply coordinator event types.
const (
	EventReplySet       observability.EventType = "dialogue.reply.set"
	EventReplyAccepted  observability.EventType = "dialogue.reply.accepted"
	EventReplyRejected  observability.EventType = "dialogue.reply.rejected"
	EventReplyExhausted observability.EventType = "dialogue.reply.exhausted"
	EventReplyTimeout   observability.EventType = "dialogue.reply.timeout"
	EventReplyCancelled observability.EventType = "dialogue.reply.cancelled"
)
