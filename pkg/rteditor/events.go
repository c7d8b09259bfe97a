package rteditor

import (
	"time"

	"golang.org/x/net/html"

	"rteditor/internal/css"
)

// Event names
const (
	EventChange      = "change"
	EventImageResize = "imageresize"
)

// Event is delivered to listeners after the editor lock is released
type Event struct {
	Type string

	// HTML is the normalized content after the change
	HTML string

	// Image and Dimensions are set for image resize events
	Image      *html.Node
	Dimensions css.Dimensions
}

// Listener receives editor events
type Listener func(Event)

// On registers fn for events of the given type
func (e *Editor) On(event string, fn Listener) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.addListener(event, fn)
}

func (e *Editor) addListener(event string, fn Listener) {
	e.listeners[event] = append(e.listeners[event], fn)
}

// notification is a batch of events captured under the lock and sent after it is released
type notification struct {
	events    []Event
	listeners map[string][]Listener
}

func (e *Editor) notify(events ...Event) *notification {
	n := &notification{events: events, listeners: make(map[string][]Listener)}
	for _, ev := range events {
		n.listeners[ev.Type] = append([]Listener(nil), e.listeners[ev.Type]...)
	}
	return n
}

func (e *Editor) changeNotification() *notification {
	return e.notify(Event{Type: EventChange, HTML: e.normalizedHTML()})
}

func (n *notification) send() {
	if n == nil {
		return
	}
	for _, ev := range n.events {
		for _, fn := range n.listeners[ev.Type] {
			fn(ev)
		}
	}
}

// Stopper cancels a scheduled call
type Stopper interface {
	Stop() bool
}

// Scheduler runs f once after d. The editor uses it to debounce typing snapshots.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}
