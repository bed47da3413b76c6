package main

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestLZSSRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("short"), // < 18 bytes, smaller than a single group
		bytes.Repeat([]byte("abcabcabcabc"), 1),
		bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 200), // > window (4096)
	}
	for _, data := range cases {
		packed := NewLZSS(lzssDefaultLevel).Pack(data)
		if len(packed) < 8 {
			t.Fatalf("packed output too short for header: %d bytes", len(packed))
		}
		packedSize := binary.LittleEndian.Uint32(packed[0:4])
		if int(packedSize) != len(packed)-8 {
			t.Errorf("header packed_size %d != payload length %d", packedSize, len(packed)-8)
		}
		unpacked, err := NewLZSS(lzssDefaultLevel).Unpack(packed)
		if err != nil {
			t.Fatalf("Unpack failed: %v", err)
		}
		if !bytes.Equal(unpacked, data) {
			t.Errorf("round-trip mismatch: got %q, want %q", unpacked, data)
		}
	}
}

func TestLZSSUnpackCorrupt(t *testing.T) {
	packed := NewLZSS(lzssDefaultLevel).Pack([]byte("some data to pack here"))
	packed[0] ^= 0xFF // corrupt the packed_size header field
	if _, err := NewLZSS(lzssDefaultLevel).Unpack(packed); err == nil {
		t.Fatal("expected Unpack to reject a corrupted packed_size header")
	}
}
