package telemetry

import (
	"testing"

	"github.com/nav-telemetry/backend/internal/navigation"
)

func loc(i int) navigation.Location {
	return navigation.Location{Latitude: float64(i), Longitude: float64(-i)}
}

func TestRingBuffer_KeepsLastN(t *testing.T) {
	tests := []struct {
		name    string
		appends int
		wantLen int
		first   int
	}{
		{"Empty", 0, 0, 0},
		{"Partial", 5, 5, 0},
		{"Exact", 20, 20, 0},
		{"Overflow", 21, 20, 1},
		{"ManyOverflows", 57, 20, 37},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewRingBuffer(LocationBufferMaxSize)
			for i := 0; i < tt.appends; i++ {
				b.Append(loc(i))
				if b.Len() > LocationBufferMaxSize {
					t.Fatalf("len %d exceeds capacity after %d appends", b.Len(), i+1)
				}
			}
			got := b.Snapshot()
			if len(got) != tt.wantLen {
				t.Fatalf("expected %d samples, got %d", tt.wantLen, len(got))
			}
			for i, l := range got {
				if want := loc(tt.first + i); l != want {
					t.Errorf("sample %d: expected %+v, got %+v", i, want, l)
				}
			}
		})
	}
}

func TestRingBuffer_SnapshotIsCopy(t *testing.T) {
	b := NewRingBuffer(3)
	b.Append(loc(1))
	snap := b.Snapshot()
	snap[0].Latitude = 99

	last, ok := b.Last()
	if !ok || last.Latitude != 1 {
		t.Errorf("buffer mutated through snapshot: %+v", last)
	}
}

func TestRingBuffer_LastAndClear(t *testing.T) {
	b := NewRingBuffer(2)
	if _, ok := b.Last(); ok {
		t.Fatal("empty buffer should have no last sample")
	}
	b.Append(loc(1))
	b.Append(loc(2))
	b.Append(loc(3))
	if last, _ := b.Last(); last != loc(3) {
		t.Errorf("expected last %+v, got %+v", loc(3), last)
	}
	b.Clear()
	if b.Len() != 0 {
		t.Errorf("expected empty buffer after Clear, got %d", b.Len())
	}
}
