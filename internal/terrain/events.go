package terrain

import "fmt"

// EventKind tells a listener whether a patch appeared or is going away.
type EventKind int

const (
	EventHide EventKind = iota
	EventShow
)

func (k EventKind) String() string {
	switch k {
	case EventShow:
		return "show"
	case EventHide:
		return "hide"
	default:
		return "unknown"
	}
}

// Event is a queued notification.
type Event struct {
	Kind  EventKind
	Patch PatchView
}

// EventFunc receives show and hide notifications.
type EventFunc func(kind EventKind, patch PatchView)

// Mode selects how generation work is scheduled.
type Mode int

const (
	// ModeThreaded runs a worker goroutine that sleeps when idle until the camera moves.
	ModeThreaded Mode = iota
	// ModeBusy runs a worker goroutine that polls continuously, paced by a rate limiter.
	ModeBusy
	// ModeInline runs one worker pass inside every Update call.
	ModeInline
)

func (m Mode) String() string {
	switch m {
	case ModeThreaded:
		return "threaded"
	case ModeBusy:
		return "busy"
	case ModeInline:
		return "inline"
	default:
		return "unknown"
	}
}

// ParseMode maps a config name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "threaded":
		return ModeThreaded, nil
	case "busy":
		return ModeBusy, nil
	case "inline":
		return ModeInline, nil
	default:
		return 0, fmt.Errorf("unknown worker mode %q", s)
	}
}

// Delivery selects where the event callback runs.
type Delivery int

const (
	// DeliverDeferred queues events and runs the callback from Update or
	// Flush on the caller's goroutine, outside the world lock.
	DeliverDeferred Delivery = iota
	// DeliverImmediate runs the callback on the worker while the world lock
	// is held. The callback must not call back into the World.
	DeliverImmediate
)

func (d Delivery) String() string {
	switch d {
	case DeliverDeferred:
		return "deferred"
	case DeliverImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// ParseDelivery maps a config name to a Delivery.
func ParseDelivery(s string) (Delivery, error) {
	switch s {
	case "", "deferred":
		return DeliverDeferred, nil
	case "immediate":
		return DeliverImmediate, nil
	default:
		return 0, fmt.Errorf("unknown event delivery %q", s)
	}
}
