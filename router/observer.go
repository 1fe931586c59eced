package router

import "github.com/avi-assistant/avicore/observability"

// Router event types.
const (
	EventRouted   observability.EventType = "router.routed"
	EventFallback observability.EventType = "router.fallback"
)
