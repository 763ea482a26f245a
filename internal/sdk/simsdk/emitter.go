package simsdk

import (
	"sync"

	"github.com/roach88/salesmap/internal/sdk"
)

type listener struct {
	name    sdk.EventName
	handler sdk.Handler
	once    bool
	removed bool
	owner   *emitter
}

func (l *listener) Remove() {
	l.owner.remove(l)
}

// emitter keeps listeners of one handle. Registration may happen on any
// goroutine; handlers always run on the platform loop.
type emitter struct {
	platform *Platform
	target   string

	mu        sync.Mutex
	listeners map[sdk.EventName][]*listener
}

func newEmitter(p *Platform, target string) *emitter {
	return &emitter{
		platform:  p,
		target:    target,
		listeners: make(map[sdk.EventName][]*listener),
	}
}

func (e *emitter) AddListener(name sdk.EventName, h sdk.Handler) sdk.Listener {
	return e.add(name, h, false)
}

func (e *emitter) AddListenerOnce(name sdk.EventName, h sdk.Handler) sdk.Listener {
	return e.add(name, h, true)
}

func (e *emitter) add(name sdk.EventName, h sdk.Handler, once bool) *listener {
	l := &listener{name: name, handler: h, once: once, owner: e}
	e.mu.Lock()
	e.listeners[name] = append(e.listeners[name], l)
	e.mu.Unlock()
	return l
}

func (e *emitter) ClearListeners() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ls := range e.listeners {
		for _, l := range ls {
			l.removed = true
		}
	}
	e.listeners = make(map[sdk.EventName][]*listener)
}

// ListenerCount reports the live listeners for name.
func (e *emitter) ListenerCount(name sdk.EventName) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[name])
}

func (e *emitter) remove(l *listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(l)
}

func (e *emitter) removeLocked(l *listener) {
	if l.removed {
		return
	}
	l.removed = true
	ls := e.listeners[l.name]
	for i, cur := range ls {
		if cur == l {
			e.listeners[l.name] = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
}

// emit queues delivery of ev. Listeners are resolved at delivery time so a
// listener registered after emit but before delivery still receives it.
func (e *emitter) emit(ev sdk.Event) {
	e.platform.loop.enqueue(func() {
		e.dispatch(ev)
	})
}

func (e *emitter) dispatch(ev sdk.Event) {
	args := map[string]any{"event": string(ev.Name)}
	if ev.Feature != nil {
		args["feature"] = ev.Feature.ID()
	}
	e.platform.record(OpEmit, e.target, args)

	e.mu.Lock()
	snapshot := make([]*listener, 0, len(e.listeners[ev.Name]))
	for _, l := range e.listeners[ev.Name] {
		if l.removed {
			continue
		}
		snapshot = append(snapshot, l)
	}
	for _, l := range snapshot {
		if l.once {
			e.removeLocked(l)
		}
	}
	e.mu.Unlock()

	for _, l := range snapshot {
		l.handler(ev)
	}
}
