package hashchain

import "testing"

func TestNext_Deterministic(t *testing.T) {
	h1, err := Next(nil, 100, "user-1", []byte(`[]`))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	h2, err := Next(nil, 100, "user-1", []byte(`[]`))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if h1 != h2 {
		t.Errorf("expected identical inputs to produce identical digests")
	}
}

func TestNext_SizeIs32Bytes(t *testing.T) {
	h, err := Next(nil, 1, "u", []byte(`[]`))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(h) != Size {
		t.Errorf("got digest length %d, want %d", len(h), Size)
	}
}

func TestNext_ChainsOnPriorHash(t *testing.T) {
	first, err := Next(nil, 1, "u", []byte(`[]`))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	second, err := Next(first[:], 2, "u", []byte(`[{"op":"add"}]`))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	secondAgain, err := Next(first[:], 2, "u", []byte(`[{"op":"add"}]`))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if second != secondAgain {
		t.Errorf("expected chaining off the same prior hash to be deterministic")
	}

	otherPrior, err := Next(nil, 99, "other", []byte(`[]`))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	third, err := Next(otherPrior[:], 2, "u", []byte(`[{"op":"add"}]`))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if second == third {
		t.Errorf("expected a different prior hash to change the digest")
	}
}

func TestNext_DifferentInputsDifferentDigests(t *testing.T) {
	base, _ := Next(nil, 1, "user-a", []byte(`[]`))
	diffCreated, _ := Next(nil, 2, "user-a", []byte(`[]`))
	diffUser, _ := Next(nil, 1, "user-b", []byte(`[]`))
	diffPatches, _ := Next(nil, 1, "user-a", []byte(`[{"op":"add"}]`))

	digests := [][Size]byte{base, diffCreated, diffUser, diffPatches}
	for i := range digests {
		for j := i + 1; j < len(digests); j++ {
			if digests[i] == digests[j] {
				t.Errorf("expected digests %d and %d to differ", i, j)
			}
		}
	}
}
