package push

import (
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestChannelDelayHonorsMaxDelay(t *testing.T) {
	c := New(Options{BaseDelay: time.Second, MaxDelay: 5 * time.Second}, nil)
	if got := c.delay(0); got != time.Second {
		t.Fatalf("delay(0) = %v, want 1s", got)
	}
	if got := c.delay(5); got != 5*time.Second {
		t.Fatalf("delay(5) = %v, want 5s", got)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]State{
		{Closed, Connecting},
		{Connecting, Open},
		{Connecting, Errored},
		{Open, Closed},
		{Open, Errored},
		{Errored, Closed},
		{Errored, Connecting},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tr[0], tr[1])
		}
	}
	rejected := [][2]State{
		{Closed, Open},
		{Open, Connecting},
		{Closed, Errored},
	}
	for _, tr := range rejected {
		if CanTransition(tr[0], tr[1]) {
			t.Errorf("CanTransition(%s, %s) = true, want false", tr[0], tr[1])
		}
	}
}
