package logtail

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func texts(lines []Line) []string {
	if lines == nil {
		return nil
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestBuffer(t *testing.T) {
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		expectedAll = append(expectedAll, fmt.Sprintf("Line %d", i))
	}

	tests := []struct {
		name     string
		capacity int
		appended int
		expected []string
	}{
		{
			name:     "empty",
			capacity: 5,
			appended: 0,
			expected: nil,
		},
		{
			name:     "under capacity",
			capacity: 20,
			appended: 10,
			expected: expectedAll,
		},
		{
			name:     "exactly full",
			capacity: 10,
			appended: 10,
			expected: expectedAll,
		},
		{
			name:     "wrapped",
			capacity: 5,
			appended: 10,
			expected: expectedAll[5:],
		},
		{
			name:     "capacity one",
			capacity: 1,
			appended: 10,
			expected: expectedAll[9:],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.capacity)
			for i := 0; i < tt.appended; i++ {
				b.Append(Line{Text: expectedAll[i], Class: "info"})
			}
			if got := texts(b.Lines()); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Lines() = %v, want %v", got, tt.expected)
			}
			if got := b.Total(); got != uint64(tt.appended) {
				t.Errorf("Total() = %d, want %d", got, tt.appended)
			}
		})
	}
}

func TestBuffer_ZeroValueUsesDefaultCapacity(t *testing.T) {
	var b Buffer
	for i := 0; i < DefaultCapacity+3; i++ {
		b.Append(Line{Text: fmt.Sprint(i)})
	}
	if b.Len() != DefaultCapacity {
		t.Fatalf("Len() = %d, want %d", b.Len(), DefaultCapacity)
	}
	if first := b.Lines()[0].Text; first != "3" {
		t.Fatalf("oldest line = %q, want 3", first)
	}
}

func TestBuffer_LinesIsACopy(t *testing.T) {
	b := New(3)
	b.Append(Line{Text: "a"})
	lines := b.Lines()
	lines[0].Text = "changed"
	if got := b.Lines()[0].Text; got != "a" {
		t.Fatalf("buffer mutated through Lines(): %q", got)
	}
}

func TestBuffer_ConcurrentAppend(t *testing.T) {
	b := New(50)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Append(Line{Text: "x"})
			}
		}()
	}
	wg.Wait()
	if b.Total() != 400 || b.Len() != 50 {
		t.Fatalf("Total=%d Len=%d, want 400/50", b.Total(), b.Len())
	}
}
