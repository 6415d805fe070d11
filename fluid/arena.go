package fluid

// Slot names one of the two buffers of an Arena.
type Slot uint8

const (
	SlotA Slot = iota
	SlotB
)

// Other returns the opposite slot.
func (s Slot) Other() Slot { return s ^ 1 }

// Arena is a front/back buffer pair. Passes read the current buffer and
// write the scratch one; Swap then promotes the written buffer.
type Arena struct {
	bufs  [2]Buffer
	front Slot
}

// NewArena wraps two equally sized buffers. a starts as the current buffer.
func NewArena(a, b Buffer) Arena {
	return Arena{bufs: [2]Buffer{a, b}}
}

// Front returns the slot holding the current result.
func (a *Arena) Front() Slot { return a.front }

// Get returns the buffer in slot s.
func (a *Arena) Get(s Slot) Buffer { return a.bufs[s] }

// Current returns the buffer holding the latest result.
func (a *Arena) Current() Buffer { return a.bufs[a.front] }

// Scratch returns the buffer the next pass should write.
func (a *Arena) Scratch() Buffer { return a.bufs[a.front.Other()] }

// Swap promotes the scratch buffer to current and returns its slot.
func (a *Arena) Swap() Slot {
	a.front = a.front.Other()
	return a.front
}

// Holds reports whether b is one of the arena's buffers.
func (a *Arena) Holds(b Buffer) bool {
	return b != nil && (a.bufs[0] == b || a.bufs[1] == b)
}

func (a *Arena) release(dev Device) {
	for i, b := range a.bufs {
		if b != nil {
			dev.Release(b)
			a.bufs[i] = nil
		}
	}
	a.front = SlotA
}
