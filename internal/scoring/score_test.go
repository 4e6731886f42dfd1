package scoring

import "testing"

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		moves   int
		elapsed int
		pairs   int
		want    int
	}{
		{"typical game", 10, 60, 8, 738},    // 800 - 50 - 12
		{"perfect game", 0, 0, 8, 800},      // no penalties
		{"clamped at zero", 1000, 1000, 1, 0},
		{"sub-10s has no time penalty", 0, 9, 1, 100},
		{"one move one tick block", 1, 10, 1, 93}, // 100 - 5 - 2
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.moves, tt.elapsed, tt.pairs)
			if got != tt.want {
				t.Errorf("Compute(%d, %d, %d) = %d, want %d",
					tt.moves, tt.elapsed, tt.pairs, got, tt.want)
			}
			if got < 0 {
				t.Error("score must never be negative")
			}
		})
	}
}

func TestCompute_Deterministic(t *testing.T) {
	first := Compute(7, 42, 6)
	for i := 0; i < 10; i++ {
		if Compute(7, 42, 6) != first {
			t.Fatal("Compute is not deterministic")
		}
	}
}
