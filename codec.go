package main

import (
	"crypto/md5"
	"errors"
)

// XORCycle XORs buf in place with key, cycling from (start mod len(key)).
// A zero-length key is an error per §4.1.
func XORCycle(buf []byte, key []byte, start int) error {
	if len(key) == 0 {
		return errors.New("xor_cycle: zero-length key")
	}
	klen := len(key)
	for i := range buf {
		buf[i] ^= key[(start+i)%klen]
	}
	return nil
}

// MD5Digest returns the RFC 1321 digest of data.
func MD5Digest(data []byte) [16]byte {
	return md5.Sum(data)
}

// MD5Dword reads a little-endian uint32 out of a 16-byte MD5 digest at a
// word index in [0,4), used by source_angou's mask/map dimension
// derivation (§4.10).
func MD5Dword(digest [16]byte, wordIndex int) uint32 {
	i := wordIndex * 4
	return uint32(digest[i]) | uint32(digest[i+1])<<8 | uint32(digest[i+2])<<16 | uint32(digest[i+3])<<24
}

// TileCopy performs the masked block-permutation copy described in §4.1.
// src and dst are flat byte slices addressed in 4-byte cells, laid out
// bx*by blocks. mask is tx*ty bytes. rev selects which sense of the
// mask/limit comparison passes a block through.
func TileCopy(dst, src []byte, bx, by, tx, ty int, mask []byte, repx, repy, lim int, rev bool) {
	x0 := tileOffset(repx, tx)
	y0 := tileOffset(repy, ty)
	for y := 0; y < by; y++ {
		for x := 0; x < bx; x++ {
			txi := (y0 + y) % ty
			tyi := (x0 + x) % tx
			v := mask[txi*tx+tyi]
			pass := (!rev && int(v) >= lim) || (rev && int(v) < lim)
			if !pass {
				continue
			}
			srcOff := (y*bx + x) * 4
			dstOff := (y*bx + x) * 4
			if srcOff+4 > len(src) || dstOff+4 > len(dst) {
				continue
			}
			copy(dst[dstOff:dstOff+4], src[srcOff:srcOff+4])
		}
	}
}

// tileOffset implements x0 = (-repx) mod tx if repx<=0 else (tx - repx mod
// tx) mod tx, per §4.1.
func tileOffset(rep, modulus int) int {
	if modulus <= 0 {
		return 0
	}
	var v int
	if rep <= 0 {
		v = ((-rep) % modulus)
	} else {
		v = (modulus - rep%modulus) % modulus
	}
	if v < 0 {
		v += modulus
	}
	return v
}
