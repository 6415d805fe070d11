// Package host holds the pieces every front end shares: the session that
// wires config, device, engine and telemetry together, and the event hub
// front ends push window input into.
package host

import "github.com/pthm-cable/ether/ether"

// Events fans host input out to every subscribed listener. Front ends call
// its Listener methods from their input polling; engines subscribe to it
// as an ether.EventSource.
type Events struct {
	next      int
	listeners map[int]ether.Listener
	order     []int
}

func NewEvents() *Events {
	return &Events{listeners: make(map[int]ether.Listener)}
}

// Subscribe implements ether.EventSource.
func (e *Events) Subscribe(l ether.Listener) func() {
	e.next++
	id := e.next
	e.listeners[id] = l
	e.order = append(e.order, id)
	return func() {
		if _, ok := e.listeners[id]; !ok {
			return
		}
		delete(e.listeners, id)
		for i, o := range e.order {
			if o == id {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
}

// Len returns the number of subscribed listeners.
func (e *Events) Len() int { return len(e.order) }

func (e *Events) each(fn func(l ether.Listener)) {
	for _, id := range e.order {
		fn(e.listeners[id])
	}
}

func (e *Events) PointerMove(x, y float64) {
	e.each(func(l ether.Listener) { l.PointerMove(x, y) })
}

func (e *Events) PointerLeave() {
	e.each(func(l ether.Listener) { l.PointerLeave() })
}

func (e *Events) TouchStart(x, y float64, touches int) {
	e.each(func(l ether.Listener) { l.TouchStart(x, y, touches) })
}

func (e *Events) TouchMove(x, y float64, touches int) {
	e.each(func(l ether.Listener) { l.TouchMove(x, y, touches) })
}

func (e *Events) TouchEnd() {
	e.each(func(l ether.Listener) { l.TouchEnd() })
}

func (e *Events) Resize() {
	e.each(func(l ether.Listener) { l.Resize() })
}

func (e *Events) Intersection(intersecting bool) {
	e.each(func(l ether.Listener) { l.Intersection(intersecting) })
}

func (e *Events) Visibility(visible bool) {
	e.each(func(l ether.Listener) { l.Visibility(visible) })
}

var _ ether.Listener = (*Events)(nil)
var _ ether.EventSource = (*Events)(nil)
