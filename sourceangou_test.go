package main

import (
	"bytes"
	"testing"
)

func TestSourceAngouRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"scene01.ss", []byte("*Z0\n\"hello, world\"\n")},
		{"empty.ss", []byte{}},
		{"a/b/nested.inc", bytes.Repeat([]byte("#property int foo\n"), 50)},
	}

	for _, c := range cases {
		sa := NewSourceAngou(defaultSourceAngouRecipe(), lzssDefaultLevel)
		enc, err := sa.Encode(c.data, c.name)
		if err != nil {
			t.Fatalf("Encode(%s) failed: %v", c.name, err)
		}

		sa2 := NewSourceAngou(defaultSourceAngouRecipe(), lzssDefaultLevel)
		dec, name, err := sa2.Decode(enc)
		if err != nil {
			t.Fatalf("Decode(%s) failed: %v", c.name, err)
		}
		if name != c.name {
			t.Errorf("Decode name = %q, want %q", name, c.name)
		}
		if !bytes.Equal(dec, c.data) {
			t.Errorf("Decode data mismatch for %s: got %q, want %q", c.name, dec, c.data)
		}
	}
}
