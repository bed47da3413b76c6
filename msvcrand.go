package main

// Shuffler is an MSVC-compatible rand()-driven Fisher-Yates-with-rejection
// shuffler, module-scoped and single-writer per §4.7/§9: the reference
// compiler's string-table permutation depends on one PRNG stream advancing
// across every scene's string table in sorted compilation order. The
// instance is threaded explicitly (not package-global): CompileScenes owns
// it and hands it to RunBS scene by scene in one sequential pass, after the
// parallel CA..MA passes.
type Shuffler struct {
	state uint32
}

// NewShuffler seeds the PRNG to 1, per §4.7.
func NewShuffler() *Shuffler {
	return &Shuffler{state: 1}
}

// next advances the MSVC rand() state and returns the 15-bit output.
func (s *Shuffler) next() uint32 {
	s.state = s.state*214013 + 2531011
	return (s.state >> 16) & 0x7FFF
}

// draw returns an unbiased value in [0, n) by concatenating 15-bit PRNG
// outputs to reach the next power-of-two >= n and rejecting tail values,
// per §4.7.
func (s *Shuffler) draw(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	bound := nextPow2(n)
	for {
		v := s.drawBits(bound)
		if v < n {
			return v
		}
	}
}

// drawBits concatenates 15-bit PRNG draws until it has covered bound's bit
// width, returning a value in [0, bound).
func (s *Shuffler) drawBits(bound uint32) uint32 {
	bits := bitLen(bound)
	var acc uint32
	got := 0
	for got < bits {
		acc = (acc << 15) | s.next()
		got += 15
	}
	// Keep only the low `bits` bits of the concatenated stream.
	return acc & (bound - 1)
}

func nextPow2(n uint32) uint32 {
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return p
}

func bitLen(p uint32) int {
	n := 0
	for p > 1 {
		p >>= 1
		n++
	}
	if n == 0 {
		n = 1
	}
	return n
}

// Shuffle returns a permutation of [0, n) using the textbook
// draw-without-bias Fisher-Yates: for i from n-1 down to 1, swap i with
// draw(i+1).
func (s *Shuffler) Shuffle(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(s.draw(uint32(i + 1)))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
