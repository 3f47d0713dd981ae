package form

import (
	"sync"
	"time"
)

const (
	DefaultNoticeDelay = 5 * time.Second
	DefaultNoticeFade  = 300 * time.Millisecond
)

// NoticeState is the visibility of the inline error message.
type NoticeState int

const (
	NoticeHidden NoticeState = iota
	NoticeShown
	// NoticeFading means the message is on its way out but still rendered.
	NoticeFading
)

func (s NoticeState) String() string {
	switch s {
	case NoticeShown:
		return "shown"
	case NoticeFading:
		return "fading"
	default:
		return "hidden"
	}
}

// NoticeEvent is delivered to subscribers on every state change.
type NoticeEvent struct {
	Message string
	State   NoticeState
}

type stopper interface {
	Stop() bool
}

type scheduleFunc func(d time.Duration, f func()) stopper

func afterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// Notice is a transient inline message that dismisses itself after a delay.
type Notice struct {
	mu       sync.Mutex
	message  string
	state    NoticeState
	delay    time.Duration
	fade     time.Duration
	schedule scheduleFunc
	timers   []stopper
	// gen invalidates callbacks scheduled for an older message.
	gen       uint64
	listeners []func(NoticeEvent)
}

func NewNotice(delay, fade time.Duration) *Notice {
	if delay <= 0 {
		delay = DefaultNoticeDelay
	}
	if fade < 0 {
		fade = DefaultNoticeFade
	}

	return &Notice{
		delay:    delay,
		fade:     fade,
		schedule: afterFunc,
	}
}

// Subscribe registers fn to be called after each state change.
func (n *Notice) Subscribe(fn func(NoticeEvent)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// Show displays message and schedules it to be hidden after the delay.
// A newer message replaces an older one together with its pending hide.
func (n *Notice) Show(message string) {
	n.mu.Lock()
	n.stopTimers()
	n.gen++
	gen := n.gen
	n.message = message
	n.state = NoticeShown
	n.timers = append(n.timers, n.schedule(n.delay, func() { n.hide(gen) }))
	event, listeners := n.eventLocked()
	n.mu.Unlock()

	notify(listeners, event)
}

// Hide starts dismissing the current message. It is a no-op when nothing is shown.
func (n *Notice) Hide() {
	n.mu.Lock()
	gen := n.gen
	n.mu.Unlock()

	n.hide(gen)
}

// Current returns the message and its state.
func (n *Notice) Current() (string, NoticeState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.message, n.state
}

func (n *Notice) hide(gen uint64) {
	n.mu.Lock()
	if gen != n.gen || n.state != NoticeShown {
		n.mu.Unlock()
		return
	}

	n.stopTimers()
	n.state = NoticeFading
	n.timers = append(n.timers, n.schedule(n.fade, func() { n.finish(gen) }))
	event, listeners := n.eventLocked()
	n.mu.Unlock()

	notify(listeners, event)
}

func (n *Notice) finish(gen uint64) {
	n.mu.Lock()
	if gen != n.gen || n.state != NoticeFading {
		n.mu.Unlock()
		return
	}

	n.state = NoticeHidden
	n.message = ""
	n.timers = nil
	event, listeners := n.eventLocked()
	n.mu.Unlock()

	notify(listeners, event)
}

// Reset hides the message immediately and cancels pending timers.
func (n *Notice) Reset() {
	n.mu.Lock()
	n.stopTimers()
	n.gen++
	changed := n.state != NoticeHidden
	n.state = NoticeHidden
	n.message = ""
	event, listeners := n.eventLocked()
	n.mu.Unlock()

	if changed {
		notify(listeners, event)
	}
}

func (n *Notice) stopTimers() {
	for _, t := range n.timers {
		t.Stop()
	}
	n.timers = nil
}

func (n *Notice) eventLocked() (NoticeEvent, []func(NoticeEvent)) {
	listeners := make([]func(NoticeEvent), len(n.listeners))
	copy(listeners, n.listeners)
	return NoticeEvent{Message: n.message, State: n.state}, listeners
}

func notify(listeners []func(NoticeEvent), event NoticeEvent) {
	for _, fn := range listeners {
		fn(event)
	}
}
