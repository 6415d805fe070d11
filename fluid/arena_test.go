package fluid

import "testing"

func TestArenaSwap(t *testing.T) {
	dev := NewCPUDevice(1)
	defer dev.Close()
	a, _ := dev.Alloc(2, 2, 1)
	b, _ := dev.Alloc(2, 2, 1)
	arena := NewArena(a, b)

	if arena.Front() != SlotA || arena.Current() != a || arena.Scratch() != b {
		t.Fatal("new arena should start with slot A current")
	}
	if s := arena.Swap(); s != SlotB {
		t.Errorf("expected swap to return slot B, got %v", s)
	}
	if arena.Current() != b || arena.Scratch() != a {
		t.Error("swap did not exchange current and scratch")
	}
	arena.Swap()
	if arena.Current() != a {
		t.Error("second swap should restore slot A")
	}
	if !arena.Holds(a) || !arena.Holds(b) {
		t.Error("arena should hold both buffers")
	}

	arena.release(dev)
	if dev.Live() != 0 {
		t.Errorf("expected all buffers released, %d live", dev.Live())
	}
	if arena.Holds(a) {
		t.Error("released arena still holds a buffer")
	}
}
