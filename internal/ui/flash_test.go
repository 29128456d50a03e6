package ui

import "testing"

func TestFlashExpiryIsKeyedByID(t *testing.T) {
	var f flash
	if cmd := f.show("Sending...", flashInfo, 0); cmd != nil {
		t.Fatalf("zero ttl should not schedule a timer")
	}
	first := f.id
	if cmd := f.show("Task added!", flashSuccess, FlashDuration); cmd == nil {
		t.Fatalf("expected a timer for a timed flash")
	}

	if f.expire(flashExpiredMsg{id: first}) {
		t.Fatalf("stale timer cleared a newer flash")
	}
	if f.text != "Task added!" {
		t.Fatalf("text = %q, want %q", f.text, "Task added!")
	}
	if !f.expire(flashExpiredMsg{id: f.id}) {
		t.Fatalf("matching timer did not clear the flash")
	}
	if f.visible() {
		t.Fatalf("flash still visible after expiry")
	}
}

func TestFlashClearInvalidatesTimer(t *testing.T) {
	var f flash
	f.show("Error connecting", flashError, FlashDuration)
	id := f.id
	f.clear()
	f.show("Please select a file", flashError, 0)
	if f.expire(flashExpiredMsg{id: id}) {
		t.Fatalf("timer from before clear removed a later message")
	}
}
