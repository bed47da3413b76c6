package main

import (
	"encoding/binary"
	"path/filepath"
	"strings"
)

// Extractor inverts the linker's archive layers (§4.11): parses the
// Scene.pck header, recovers each scene's plain .dat, and, when present,
// the original-source appendix.
type Extractor struct {
	cfg *Config
}

func NewExtractor(cfg *Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// ExtractedScene is one recovered scene: its archive-catalog name and its
// plain (uncompressed, unencrypted) .dat bytes.
type ExtractedScene struct {
	Name string
	Dat  []byte
}

// ExtractResult bundles everything recovered from one archive.
type ExtractResult struct {
	Scenes          []ExtractedScene
	OriginalSources map[string][]byte // rel path -> bytes, nil if no appendix
}

// looksLZSSShaped is a cheap pre-check before attempting LZSS.Unpack: it
// just confirms the 8-byte packed_size/original_size header is present and
// internally consistent. Unpack itself does the authoritative validation.
func looksLZSSShaped(buf []byte) bool {
	if len(buf) < 8 {
		return false
	}
	packedSize := binary.LittleEndian.Uint32(buf[0:4])
	return uint32(len(buf)-8) == packedSize
}

// Extract parses an archive produced by Linker.Link and recovers its
// per-scene .dat blobs plus (if present) the original-source appendix.
func (ex *Extractor) Extract(archive []byte) (*ExtractResult, error) {
	hdr, err := decodeArchiveHeader(archive)
	if err != nil {
		return nil, err
	}

	// ScnNameCnt is an entry count (matching ScnNameIndexCnt), not a
	// UTF-16 code-unit count, so the blob's byte length comes from the
	// gap to the next section's offset instead.
	scnNameIdx := decodeSlicePairs(archive, hdr.ScnNameIndexListOfs, hdr.ScnNameIndexCnt)
	scnNameBlob := sliceSection(archive, hdr.ScnNameListOfs, hdr.ScnDataIndexListOfs-hdr.ScnNameListOfs)
	scnDataIdx := decodeSlicePairs(archive, hdr.ScnDataIndexListOfs, hdr.ScnDataIndexCnt)
	scnDataLen := 0
	for _, s := range scnDataIdx {
		if end := int(s.Offset) + int(s.Length); end > scnDataLen {
			scnDataLen = end
		}
	}

	names := make([]string, len(scnNameIdx))
	for i, s := range scnNameIdx {
		names[i] = decodeUTF16NameSlice(scnNameBlob, s)
	}

	scenes := make([]ExtractedScene, len(scnDataIdx))
	for i, s := range scnDataIdx {
		start := int(s.Offset)
		end := start + int(s.Length)
		body := archive[int(hdr.ScnDataListOfs)+start : int(hdr.ScnDataListOfs)+end]
		plain, err := ex.recoverScene(body, hdr.ScnDataExeAngouMod != 0)
		if err != nil {
			return nil, err
		}
		name := ""
		if i < len(names) {
			name = names[i]
		}
		scenes[i] = ExtractedScene{Name: name, Dat: plain}
	}

	result := &ExtractResult{Scenes: scenes}

	if hdr.OriginalSourceHeaderSize > 0 {
		appendixOff := int(hdr.ScnDataListOfs) + scnDataLen
		sources, err := ex.recoverOriginalSources(archive[appendixOff:], int(hdr.OriginalSourceHeaderSize))
		if err != nil {
			return nil, err
		}
		result.OriginalSources = sources
	}

	return result, nil
}

func sliceSection(buf []byte, off, byteLen int32) []byte {
	return buf[off : off+byteLen]
}

func sliceTo(buf []byte, off int32) []byte {
	return buf[off:]
}

func decodeUTF16NameSlice(blob []byte, s StrSlice) string {
	start := int(s.Offset) * 2
	end := start + int(s.Length)*2
	if start < 0 || end > len(blob) {
		return ""
	}
	units := make([]uint16, s.Length)
	for i := range units {
		units[i] = uint16(blob[start+i*2]) | uint16(blob[start+i*2+1])<<8
	}
	return string(decodeUTF16(units))
}

// recoverScene inverts exe-XOR (if the archive-wide flag is set), then
// easy-XOR + LZSS-unpack; falls back to a raw passthrough when the result
// doesn't look LZSS-shaped, matching a --no-angou archive's plain bodies.
func (ex *Extractor) recoverScene(body []byte, exeMod bool) ([]byte, error) {
	work := append([]byte(nil), body...)
	if exeMod && len(ex.cfg.AngouSecret) > 0 {
		exeEl := exeAngouElement(ex.cfg.AngouSecret)
		if err := XORCycle(work, exeEl, 0); err != nil {
			return nil, err
		}
	}

	easyXored := append([]byte(nil), work...)
	if err := XORCycle(easyXored, easyAngouCode, 0); err != nil {
		return nil, err
	}
	if looksLZSSShaped(easyXored) {
		if dat, err := NewLZSS(ex.cfg.LZSSLevel).Unpack(easyXored); err == nil {
			return dat, nil
		}
	}

	// Doesn't look LZSS-shaped (or failed to unpack): assume a --no-angou
	// archive whose scn_data is the plain .dat passthrough.
	return work, nil
}

// recoverOriginalSources decodes the size table then each contiguous
// chunk via source_angou, with the fixed placeholder name for the size
// table per §4.11.
func (ex *Extractor) recoverOriginalSources(appendix []byte, headerSize int) (map[string][]byte, error) {
	sa := NewSourceAngou(defaultSourceAngouRecipe(), ex.cfg.LZSSLevel)

	sizeTableEnc := appendix[:headerSize]
	sizeTableRaw, _, err := sa.Decode(sizeTableEnc)
	if err != nil {
		return nil, err
	}
	sizes := decodeI32List(sizeTableRaw, 0, int32(len(sizeTableRaw)/4))

	out := make(map[string][]byte, len(sizes))
	pos := headerSize
	for _, sz := range sizes {
		chunk := appendix[pos : pos+int(sz)]
		data, name, err := sa.Decode(chunk)
		if err != nil {
			return nil, err
		}
		out[sanitizeRelPath(name)] = data
		pos += int(sz)
	}
	return out, nil
}

// sanitizeRelPath guards against path traversal when writing recovered
// original-source files to disk: rejects absolute paths and ".." segments.
func sanitizeRelPath(name string) string {
	name = filepath.ToSlash(name)
	parts := strings.Split(name, "/")
	var clean []string
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		clean = append(clean, p)
	}
	return strings.Join(clean, "/")
}
