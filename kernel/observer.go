package kernel

import "github.com/avi-assistant/avicore/observability"

// Kernel event types emitted by the utterance pipeline.
const (
	EventUtterance observability.EventType = "kernel.utterance"
	EventIntent    observability.EventType = "kernel.intent"
	EventError     observability.EventType = "kernel.error"
)
