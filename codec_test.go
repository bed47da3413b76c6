package main

import (
	"bytes"
	"testing"
)

func TestXORCycleRoundTrip(t *testing.T) {
	keys := [][]byte{{0x2B}, []byte("password"), repeatSeed(0x42, 17)}
	starts := []int{0, 1, 5}
	data := []byte("the quick brown fox jumps over the lazy dog")

	for _, key := range keys {
		for _, start := range starts {
			work := append([]byte(nil), data...)
			if err := XORCycle(work, key, start); err != nil {
				t.Fatalf("first XORCycle failed: %v", err)
			}
			if bytes.Equal(work, data) && len(key) > 0 {
				t.Errorf("XORCycle with non-empty key left data unchanged (key=%v)", key)
			}
			if err := XORCycle(work, key, start); err != nil {
				t.Fatalf("second XORCycle failed: %v", err)
			}
			if !bytes.Equal(work, data) {
				t.Errorf("xor_cycle(xor_cycle(x,k,s),k,s) != x for key=%v start=%d", key, start)
			}
		}
	}
}

func TestXORCycleEmptyKey(t *testing.T) {
	buf := []byte("data")
	if err := XORCycle(buf, nil, 0); err == nil {
		t.Fatal("expected an error for a zero-length key")
	}
}

func TestMD5DigestRFC1321Vectors(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", "d41d8cd98f00b204e9800998ecf8427e"},
		{"a", "0cc175b9c0f1b6a831c399e269772661"},
		{"abc", "900150983cd24fb0d6963f7d28e17f72"},
		{"message digest", "f96b697d7cb7938d525a2f31aaf161d0"},
	}
	for _, c := range cases {
		digest := MD5Digest([]byte(c.input))
		got := hexDigest(digest)
		if got != c.want {
			t.Errorf("MD5Digest(%q) = %s, want %s", c.input, got, c.want)
		}
	}
}

func hexDigest(d [16]byte) string {
	const hexChars = "0123456789abcdef"
	out := make([]byte, 32)
	for i, b := range d {
		out[i*2] = hexChars[b>>4]
		out[i*2+1] = hexChars[b&0xF]
	}
	return string(out)
}
