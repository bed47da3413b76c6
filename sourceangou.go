package main

import (
	"encoding/binary"
	"unicode/utf16"
)

// SourceAngou implements the content-scrambling codec of §4.10: LZSS, an
// MD5-derived scribble block, a UTF-16LE name, a mask-driven tile_copy
// permutation over two planes, and a final whole-buffer XOR pass.
type SourceAngou struct {
	Recipe *SourceAngouRecipe
	LZSS   *LZSS
}

func NewSourceAngou(recipe *SourceAngouRecipe, lzssLevel int) *SourceAngou {
	return &SourceAngou{Recipe: recipe, LZSS: NewLZSS(lzssLevel)}
}

// buildMD5Code assembles the 68-byte md5_code block per §4.1/§4.10: bytes
// 0..16 are the digest, a length scribble lands at v13+60, and a u32 at
// offset 64 carries the compressed length.
func buildMD5Code(digest [16]byte, lzLen int) []byte {
	block := make([]byte, 68)
	copy(block[0:16], digest[:])
	mod := (lzLen + 1) & 0x3F
	var v13 int
	if mod <= 0x38 {
		v13 = 65 - mod
	} else {
		v13 = 129 - mod
	}
	scribbleOff := v13 + 60
	if scribbleOff >= 0 && scribbleOff < len(block) {
		block[scribbleOff] = byte(lzLen)
	}
	binary.LittleEndian.PutUint32(block[64:68], uint32(lzLen))
	return block
}

// Encode wraps data under name into the self-describing envelope of
// §4.10.
func (sa *SourceAngou) Encode(data []byte, name string) ([]byte, error) {
	r := sa.Recipe

	lz := sa.LZSS.Pack(data)
	if err := XORCycle(lz, r.EasyCode, r.EasyStart); err != nil {
		return nil, err
	}

	digest := MD5Digest(lz)
	md5Code := buildMD5Code(digest, len(lz))

	nameUnits := utf16.Encode([]rune(name))
	nameBytes := make([]byte, len(nameUnits)*2)
	for i, u := range nameUnits {
		binary.LittleEndian.PutUint16(nameBytes[i*2:], u)
	}
	if err := XORCycle(nameBytes, r.NameCode, r.NameStart); err != nil {
		return nil, err
	}

	maskW := int(MD5Dword(digest, r.MaskWMD5Index))%r.MaskWSurplus + r.MaskWAdd
	maskH := int(MD5Dword(digest, r.MaskHMD5Index))%r.MaskHSurplus + r.MaskHAdd
	if maskW <= 0 {
		maskW = 1
	}
	if maskH <= 0 {
		maskH = 1
	}
	mask := make([]byte, maskW*maskH)
	for i := range mask {
		mc := r.MaskCode[(r.MaskStart+i)%len(r.MaskCode)]
		md := md5Code[((r.MaskMD5Start+i)%16)*4%len(md5Code)]
		mask[i] = mc ^ md
	}

	mapW := int(MD5Dword(digest, r.MapWMD5Index))%r.MapWSurplus + r.MapWAdd
	if mapW <= 0 {
		mapW = 1
	}
	bh := (len(lz) + 1) / 2
	dh := (bh + 3) / 4
	mapH := (dh + mapW - 1) / mapW
	if mapH <= 0 {
		mapH = 1
	}
	mapTotal := mapW * mapH * 4

	lzb := make([]byte, 2*mapTotal)
	copy(lzb, lz)
	for i := len(lz); i < len(lzb); i++ {
		gi := i - len(lz)
		gc := r.GomiCode[(r.GomiStart+gi)%len(r.GomiCode)]
		md := md5Code[((r.GomiMD5Start+gi)%16)*4%len(md5Code)]
		lzb[i] = gc ^ md
	}

	sp1 := lzb[0:mapTotal]
	var sp2 []byte
	if bh+mapTotal <= len(lzb) {
		sp2 = lzb[bh : bh+mapTotal]
	} else {
		sp2 = make([]byte, mapTotal)
		copy(sp2, lzb[bh:])
	}

	dp1 := make([]byte, mapTotal)
	dp2 := make([]byte, mapTotal)
	TileCopy(dp1, sp1, mapW, mapH, maskW, maskH, mask, r.RepX, r.RepY, r.Limit, false)
	TileCopy(dp1, sp2, mapW, mapH, maskW, maskH, mask, r.RepX, r.RepY, r.Limit, true)
	TileCopy(dp2, sp1, mapW, mapH, maskW, maskH, mask, r.RepX, r.RepY, r.Limit, true)
	TileCopy(dp2, sp2, mapW, mapH, maskW, maskH, mask, r.RepX, r.RepY, r.Limit, false)

	buf := make([]byte, 0, 4+r.HeaderSize-4+4+len(nameBytes)+len(dp1)+len(dp2))
	var versionBuf [4]byte
	binary.LittleEndian.PutUint32(versionBuf[:], 1)
	buf = append(buf, versionBuf[:]...)
	if r.HeaderSize > 4 && r.HeaderSize <= len(md5Code) {
		buf = append(buf, md5Code[4:r.HeaderSize]...)
	} else {
		buf = append(buf, md5Code[4:]...)
	}
	var nameLenBuf [4]byte
	binary.LittleEndian.PutUint32(nameLenBuf[:], uint32(len(nameBytes)))
	buf = append(buf, nameLenBuf[:]...)
	buf = append(buf, nameBytes...)
	buf = append(buf, dp1...)
	buf = append(buf, dp2...)

	if err := XORCycle(buf, r.LastCode, r.LastStart); err != nil {
		return nil, err
	}
	return buf, nil
}

// Decode inverts Encode, returning the original bytes and name. It
// verifies the MD5 embedded in md5_code against the reassembled lz buffer
// and fails with ErrMD5Mismatch on divergence.
func (sa *SourceAngou) Decode(buf []byte) ([]byte, string, error) {
	r := sa.Recipe
	work := make([]byte, len(buf))
	copy(work, buf)
	if err := XORCycle(work, r.LastCode, r.LastStart); err != nil {
		return nil, "", err
	}

	if len(work) < 4+(r.HeaderSize-4)+4 {
		return nil, "", &BuildError{Code: ErrLZSSCorrupt, Hint: "source_angou header truncated"}
	}
	pos := 4
	md5Tail := work[pos : pos+(r.HeaderSize-4)]
	pos += r.HeaderSize - 4
	nameLen := binary.LittleEndian.Uint32(work[pos : pos+4])
	pos += 4
	if pos+int(nameLen) > len(work) {
		return nil, "", &BuildError{Code: ErrLZSSCorrupt, Hint: "source_angou name truncated"}
	}
	nameBytes := make([]byte, nameLen)
	copy(nameBytes, work[pos:pos+int(nameLen)])
	pos += int(nameLen)
	if err := XORCycle(nameBytes, r.NameCode, r.NameStart); err != nil {
		return nil, "", err
	}
	units := make([]uint16, len(nameBytes)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(nameBytes[i*2:])
	}
	name := string(utf16.Decode(units))

	md5Code := make([]byte, 4, 68)
	md5Code = append(md5Code, md5Tail...)
	for len(md5Code) < 68 {
		md5Code = append(md5Code, 0)
	}
	lzLen := int(binary.LittleEndian.Uint32(md5Code[64:68]))

	bh := (lzLen + 1) / 2
	dh := (bh + 3) / 4
	// mapW/mapH/mask depend on the MD5 digest of lz, which we don't have
	// until lz is reassembled -- but mask/map dimensions only depend on
	// the digest, which we recover from md5Code[0:16] directly (it was
	// written from the digest at encode time, see buildMD5Code).
	var digest [16]byte
	copy(digest[:], md5Code[0:16])

	maskW := int(MD5Dword(digest, r.MaskWMD5Index))%r.MaskWSurplus + r.MaskWAdd
	maskH := int(MD5Dword(digest, r.MaskHMD5Index))%r.MaskHSurplus + r.MaskHAdd
	if maskW <= 0 {
		maskW = 1
	}
	if maskH <= 0 {
		maskH = 1
	}
	mask := make([]byte, maskW*maskH)
	for i := range mask {
		mc := r.MaskCode[(r.MaskStart+i)%len(r.MaskCode)]
		md := md5Code[((r.MaskMD5Start+i)%16)*4%len(md5Code)]
		mask[i] = mc ^ md
	}

	mapW := int(MD5Dword(digest, r.MapWMD5Index))%r.MapWSurplus + r.MapWAdd
	if mapW <= 0 {
		mapW = 1
	}
	mapH := (dh + mapW - 1) / mapW
	if mapH <= 0 {
		mapH = 1
	}
	mapTotal := mapW * mapH * 4

	if pos+2*mapTotal > len(work) {
		return nil, "", &BuildError{Code: ErrLZSSCorrupt, Hint: "source_angou planes truncated"}
	}
	dp1 := work[pos : pos+mapTotal]
	dp2 := work[pos+mapTotal : pos+2*mapTotal]

	sp1 := make([]byte, mapTotal)
	sp2 := make([]byte, mapTotal)
	// Invert the four tile_copy passes: dp1 received (sp1,false) then
	// (sp2,true); dp2 received (sp1,true) then (sp2,false). Recovering
	// sp1/sp2 exactly requires running the same mask-driven selection in
	// reverse, copying each cell from whichever destination plane it was
	// written to.
	invertTileCopy(sp1, dp1, dp2, mapW, mapH, maskW, maskH, mask, r.RepX, r.RepY, r.Limit, false)
	invertTileCopy(sp2, dp1, dp2, mapW, mapH, maskW, maskH, mask, r.RepX, r.RepY, r.Limit, true)

	lzb := append(sp1, sp2...)
	if len(lzb) < lzLen {
		return nil, "", &BuildError{Code: ErrLZSSCorrupt, Hint: "reassembled buffer shorter than lz_len"}
	}
	lz := lzb[:lzLen]

	if MD5Digest(lz) != digest {
		return nil, "", &BuildError{Code: ErrMD5Mismatch}
	}

	if err := XORCycle(lz, r.EasyCode, r.EasyStart); err != nil {
		return nil, "", err
	}
	data, err := sa.LZSS.Unpack(lz)
	if err != nil {
		return nil, "", err
	}
	return data, name, nil
}

// invertTileCopy recovers a source plane (sense `rev`) from the two
// destination planes it was tile_copy'd into: sp is built from dp1 where
// the mask selected (rev=false) and dp2 where it selected the complement.
func invertTileCopy(sp, dp1, dp2 []byte, bx, by, tx, ty int, mask []byte, repx, repy, lim int, rev bool) {
	x0 := tileOffset(repx, tx)
	y0 := tileOffset(repy, ty)
	for y := 0; y < by; y++ {
		for x := 0; x < bx; x++ {
			txi := (y0 + y) % ty
			tyi := (x0 + x) % tx
			v := mask[txi*tx+tyi]
			off := (y*bx + x) * 4
			if off+4 > len(sp) {
				continue
			}
			var pass bool
			if !rev {
				pass = int(v) >= lim
			} else {
				pass = int(v) < lim
			}
			if pass {
				if off+4 <= len(dp1) {
					copy(sp[off:off+4], dp1[off:off+4])
				}
			} else {
				if off+4 <= len(dp2) {
					copy(sp[off:off+4], dp2[off:off+4])
				}
			}
		}
	}
}
