package main

import (
	"sort"
	"testing"
)

func TestShufflerDeterministic(t *testing.T) {
	a := NewShuffler().Shuffle(25)
	b := NewShuffler().Shuffle(25)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("two freshly seeded Shufflers diverged at index %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestShufflerIsPermutation(t *testing.T) {
	perm := NewShuffler().Shuffle(100)
	seen := make([]int, len(perm))
	copy(seen, perm)
	sort.Ints(seen)
	for i, v := range seen {
		if v != i {
			t.Fatalf("Shuffle(100) is not a permutation of [0,100): got %v at sorted position %d", v, i)
		}
	}
}

func TestShufflerAdvancesAcrossCalls(t *testing.T) {
	s := NewShuffler()
	first := s.Shuffle(10)
	second := s.Shuffle(10)
	identical := true
	for i := range first {
		if first[i] != second[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Fatal("a single Shuffler instance produced identical permutations on two calls; PRNG state did not advance")
	}
}
