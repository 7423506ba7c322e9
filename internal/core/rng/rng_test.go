package rng

import "testing"

func TestDeriveIsStable(t *testing.T) {
	first := Derive(17, 3, 12, "battle", "initiative")
	second := Derive(17, 3, 12, "battle", "initiative")
	if first != second {
		t.Fatalf("Derive produced %d then %d for the same tuple", first, second)
	}
}

func TestDeriveSeparatesStreams(t *testing.T) {
	base := Derive(17, 3, 12, "battle", "initiative")
	tests := []struct {
		name    string
		seed    int64
		day     int
		seq     uint64
		stream  string
		purpose string
	}{
		{"different seed", 18, 3, 12, "battle", "initiative"},
		{"different day", 17, 4, 12, "battle", "initiative"},
		{"different sequence", 17, 3, 13, "battle", "initiative"},
		{"different stream", 17, 3, 12, "raid", "initiative"},
		{"different purpose", 17, 3, 12, "battle", "casualties"},
		{"name boundary shift", 17, 3, 12, "battlei", "nitiative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.seed, tt.day, tt.seq, tt.stream, tt.purpose)
			if got == base {
				t.Errorf("Derive(%d, %d, %d, %q, %q) collided with base stream",
					tt.seed, tt.day, tt.seq, tt.stream, tt.purpose)
			}
		})
	}
}

func TestNewDrawsIdenticalSequences(t *testing.T) {
	a := New(42, 1, 0, "battle", "casualties")
	b := New(42, 1, 0, "battle", "casualties")
	for i := 0; i < 32; i++ {
		av, bv := a.Float64(), b.Float64()
		if av != bv {
			t.Fatalf("draw %d diverged: %v vs %v", i, av, bv)
		}
	}
}

func TestJitterStaysInBand(t *testing.T) {
	r := New(7, 0, 0, "test", "jitter")
	for i := 0; i < 100; i++ {
		v := Jitter(r, 0.25)
		if v < -0.25 || v > 0.25 {
			t.Fatalf("Jitter produced %v outside [-0.25, 0.25]", v)
		}
	}
	if got := Jitter(r, 0); got != 0 {
		t.Fatalf("Jitter with zero amplitude = %v, want 0", got)
	}
}

func TestNormalClamps(t *testing.T) {
	r := New(7, 0, 0, "test", "normal")
	for i := 0; i < 200; i++ {
		v := Normal(r, 10, 50, 0, 20)
		if v < 0 || v > 20 {
			t.Fatalf("Normal produced %v outside [0, 20]", v)
		}
	}
}
