package main

import (
	"encoding/binary"
)

// Per-scene .dat and top-level Scene.pck encoding (§3, §6). Both are
// fixed-size i32 header tables locating variable-length sections that
// follow; this mirrors the teacher's deterministic, sorted-symbol-table
// writer (codegen_elf_writer.go's two-pass address assignment), minus
// the two-pass relocation machinery -- every offset here is known as
// soon as its section's length is, since sections are emitted strictly
// in header order with no forward cross-references.

const sceneDatHeaderWords = 33
const sceneDatHeaderSize = sceneDatHeaderWords * 4

const archiveHeaderWords = 34
const archiveHeaderSize = archiveHeaderWords * 4

// encodeSlicePairs returns the little-endian bytes of a (offset, length)
// pair table, offsets/lengths in the unit the caller already used
// (bytes for i32 pair tables, char units for string index tables).
func encodeSlicePairs(slices []StrSlice) []byte {
	out := make([]byte, len(slices)*8)
	for i, s := range slices {
		binary.LittleEndian.PutUint32(out[i*8:], uint32(s.Offset))
		binary.LittleEndian.PutUint32(out[i*8+4:], uint32(s.Length))
	}
	return out
}

func encodeI32List(vals []int32) []byte {
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}

func encodeCmdLabelList(entries []cmdLabelEntry) []byte {
	out := make([]byte, len(entries)*8)
	for i, e := range entries {
		binary.LittleEndian.PutUint32(out[i*8:], uint32(e.CmdID))
		binary.LittleEndian.PutUint32(out[i*8+4:], uint32(e.Offset))
	}
	return out
}

func encodeScnPropList(entries []scnPropEntry) []byte {
	out := make([]byte, len(entries)*8)
	for i, e := range entries {
		binary.LittleEndian.PutUint32(out[i*8:], uint32(e.Form))
		binary.LittleEndian.PutUint32(out[i*8+4:], uint32(e.Size))
	}
	return out
}

// sectionBuilder accumulates a byte-addressed section region after a
// fixed-size header, recording each appended section's (offset, count)
// for the header fields that reference it.
type sectionBuilder struct {
	buf []byte
}

func newSectionBuilder(headerSize int) *sectionBuilder {
	return &sectionBuilder{buf: make([]byte, headerSize)}
}

// append writes data and returns its byte offset from file start.
func (b *sectionBuilder) append(data []byte) int32 {
	off := int32(len(b.buf))
	b.buf = append(b.buf, data...)
	return off
}

func (b *sectionBuilder) putHeaderI32(wordIndex int, v int32) {
	binary.LittleEndian.PutUint32(b.buf[wordIndex*4:], uint32(v))
}

func (b *sectionBuilder) bytes() []byte { return b.buf }

// EncodeSceneDat lays out one scene's BSResult into the 33xi32-headered
// .dat format of §4.7's header table.
func EncodeSceneDat(bs *BSResult) []byte {
	b := newSectionBuilder(sceneDatHeaderSize)

	strIdxOff := b.append(encodeSlicePairs(bs.StrIndexList))
	strOff := b.append(bs.StrBlob)
	scnOff := b.append(bs.ScnBytes)
	labelOff := b.append(encodeI32List(bs.LabelList))
	zLabelOff := b.append(encodeI32List(bs.ZLabelList))
	cmdLabelOff := b.append(encodeCmdLabelList(bs.CmdLabelList))
	scnPropOff := b.append(encodeScnPropList(bs.ScnPropList))
	scnPropNameIdxOff := b.append(encodeSlicePairs(bs.ScnPropNameIndexList))
	scnPropNameOff := b.append(bs.ScnPropNameBlob)
	scnCmdOff := b.append(encodeI32List(bs.ScnCmdList))
	scnCmdNameIdxOff := b.append(encodeSlicePairs(bs.ScnCmdNameIndexList))
	scnCmdNameOff := b.append(bs.ScnCmdNameBlob)
	callPropNameIdxOff := b.append(encodeSlicePairs(bs.CallPropNameIndexList))
	callPropNameOff := b.append(bs.CallPropNameBlob)
	namaeOff := b.append(encodeI32List(bs.NamaeList))
	readFlagOff := b.append(encodeI32List(bs.ReadFlagList))

	b.putHeaderI32(0, sceneDatHeaderSize)
	b.putHeaderI32(1, strIdxOff)
	b.putHeaderI32(2, int32(len(bs.StrIndexList)))
	b.putHeaderI32(3, strOff)
	b.putHeaderI32(4, int32(len(bs.StrList)))
	b.putHeaderI32(5, scnOff)
	b.putHeaderI32(6, int32(len(bs.ScnBytes)))
	b.putHeaderI32(7, labelOff)
	b.putHeaderI32(8, int32(len(bs.LabelList)))
	b.putHeaderI32(9, zLabelOff)
	b.putHeaderI32(10, int32(len(bs.ZLabelList)))
	b.putHeaderI32(11, cmdLabelOff)
	b.putHeaderI32(12, int32(len(bs.CmdLabelList)))
	b.putHeaderI32(13, scnPropOff)
	b.putHeaderI32(14, int32(len(bs.ScnPropList)))
	b.putHeaderI32(15, scnPropNameIdxOff)
	b.putHeaderI32(16, int32(len(bs.ScnPropNameIndexList)))
	b.putHeaderI32(17, scnPropNameOff)
	b.putHeaderI32(18, int32(len(bs.ScnPropNameIndexList)))
	b.putHeaderI32(19, scnCmdOff)
	b.putHeaderI32(20, int32(len(bs.ScnCmdList)))
	b.putHeaderI32(21, scnCmdNameIdxOff)
	b.putHeaderI32(22, int32(len(bs.ScnCmdNameIndexList)))
	b.putHeaderI32(23, scnCmdNameOff)
	b.putHeaderI32(24, int32(len(bs.ScnCmdNameIndexList)))
	b.putHeaderI32(25, callPropNameIdxOff)
	b.putHeaderI32(26, int32(len(bs.CallPropNameIndexList)))
	b.putHeaderI32(27, callPropNameOff)
	b.putHeaderI32(28, int32(len(bs.CallPropNameIndexList)))
	b.putHeaderI32(29, namaeOff)
	b.putHeaderI32(30, int32(len(bs.NamaeList)))
	b.putHeaderI32(31, readFlagOff)
	b.putHeaderI32(32, int32(len(bs.ReadFlagList)))

	return b.bytes()
}

// SceneDatSections is DecodeSceneDat's output: every section sliced back
// out of a .dat byte stream, for the extractor and disassembler.
type SceneDatSections struct {
	StrIndexList []StrSlice
	StrBlob      []byte
	ScnBytes     []byte
	LabelList    []int32
	ZLabelList   []int32
	CmdLabelList []cmdLabelEntry

	ScnPropList          []scnPropEntry
	ScnPropNameIndexList []StrSlice
	ScnPropNameBlob      []byte

	ScnCmdList          []int32
	ScnCmdNameIndexList []StrSlice
	ScnCmdNameBlob      []byte

	CallPropNameIndexList []StrSlice
	CallPropNameBlob      []byte

	NamaeList    []int32
	ReadFlagList []int32
}

func readHeaderI32(buf []byte, word int) int32 {
	return int32(binary.LittleEndian.Uint32(buf[word*4:]))
}

func decodeSlicePairs(buf []byte, off, cnt int32) []StrSlice {
	out := make([]StrSlice, cnt)
	for i := range out {
		base := int(off) + i*8
		out[i] = StrSlice{
			Offset: int32(binary.LittleEndian.Uint32(buf[base:])),
			Length: int32(binary.LittleEndian.Uint32(buf[base+4:])),
		}
	}
	return out
}

func decodeI32List(buf []byte, off, cnt int32) []int32 {
	out := make([]int32, cnt)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf[int(off)+i*4:]))
	}
	return out
}

func decodeCmdLabelList(buf []byte, off, cnt int32) []cmdLabelEntry {
	out := make([]cmdLabelEntry, cnt)
	for i := range out {
		base := int(off) + i*8
		out[i] = cmdLabelEntry{
			CmdID:  int32(binary.LittleEndian.Uint32(buf[base:])),
			Offset: int32(binary.LittleEndian.Uint32(buf[base+4:])),
		}
	}
	return out
}

func decodeScnPropList(buf []byte, off, cnt int32) []scnPropEntry {
	out := make([]scnPropEntry, cnt)
	for i := range out {
		base := int(off) + i*8
		out[i] = scnPropEntry{
			Form: int32(binary.LittleEndian.Uint32(buf[base:])),
			Size: int32(binary.LittleEndian.Uint32(buf[base+4:])),
		}
	}
	return out
}

// DecodeSceneDat inverts EncodeSceneDat.
func DecodeSceneDat(buf []byte) (*SceneDatSections, error) {
	if len(buf) < sceneDatHeaderSize {
		return nil, newErr(ErrLZSSCorrupt, "", 0, "scene .dat shorter than header")
	}
	strIdxOff, strIdxCnt := readHeaderI32(buf, 1), readHeaderI32(buf, 2)
	strOff, strCharCnt := readHeaderI32(buf, 3), readHeaderI32(buf, 4)
	_ = strCharCnt
	scnOff, scnSize := readHeaderI32(buf, 5), readHeaderI32(buf, 6)
	labelOff, labelCnt := readHeaderI32(buf, 7), readHeaderI32(buf, 8)
	zLabelOff, zLabelCnt := readHeaderI32(buf, 9), readHeaderI32(buf, 10)
	cmdLabelOff, cmdLabelCnt := readHeaderI32(buf, 11), readHeaderI32(buf, 12)
	scnPropOff, scnPropCnt := readHeaderI32(buf, 13), readHeaderI32(buf, 14)
	scnPropNameIdxOff, scnPropNameIdxCnt := readHeaderI32(buf, 15), readHeaderI32(buf, 16)
	scnPropNameOff := readHeaderI32(buf, 17)
	scnCmdOff, scnCmdCnt := readHeaderI32(buf, 19), readHeaderI32(buf, 20)
	scnCmdNameIdxOff, scnCmdNameIdxCnt := readHeaderI32(buf, 21), readHeaderI32(buf, 22)
	scnCmdNameOff := readHeaderI32(buf, 23)
	callPropNameIdxOff, callPropNameIdxCnt := readHeaderI32(buf, 25), readHeaderI32(buf, 26)
	callPropNameOff := readHeaderI32(buf, 27)
	namaeOff, namaeCnt := readHeaderI32(buf, 29), readHeaderI32(buf, 30)
	readFlagOff, readFlagCnt := readHeaderI32(buf, 31), readHeaderI32(buf, 32)

	// Word 18/24/28 hold entry counts (matching the sibling NameIndexCnt),
	// not UTF-16 code-unit counts, so each name blob's byte length is taken
	// from the gap to the next section's offset rather than a stored count.
	return &SceneDatSections{
		StrIndexList: decodeSlicePairs(buf, strIdxOff, strIdxCnt),
		StrBlob:      buf[strOff:scnOff],
		ScnBytes:     buf[scnOff : int(scnOff)+int(scnSize)],
		LabelList:    decodeI32List(buf, labelOff, labelCnt),
		ZLabelList:   decodeI32List(buf, zLabelOff, zLabelCnt),
		CmdLabelList: decodeCmdLabelList(buf, cmdLabelOff, cmdLabelCnt),

		ScnPropList:          decodeScnPropList(buf, scnPropOff, scnPropCnt),
		ScnPropNameIndexList: decodeSlicePairs(buf, scnPropNameIdxOff, scnPropNameIdxCnt),
		ScnPropNameBlob:      buf[scnPropNameOff:scnCmdOff],

		ScnCmdList:          decodeI32List(buf, scnCmdOff, scnCmdCnt),
		ScnCmdNameIndexList: decodeSlicePairs(buf, scnCmdNameIdxOff, scnCmdNameIdxCnt),
		ScnCmdNameBlob:      buf[scnCmdNameOff:callPropNameIdxOff],

		CallPropNameIndexList: decodeSlicePairs(buf, callPropNameIdxOff, callPropNameIdxCnt),
		CallPropNameBlob:      buf[callPropNameOff:namaeOff],

		NamaeList:    decodeI32List(buf, namaeOff, namaeCnt),
		ReadFlagList: decodeI32List(buf, readFlagOff, readFlagCnt),
	}, nil
}

// ArchiveHeader is the top-level Scene.pck header: 34xi32, the first 23
// words named by §6, the remainder reserved and zero-filled (the
// original format budgets more header slots than §6 currently names;
// see DESIGN.md).
type ArchiveHeader struct {
	HeaderSize               int32
	ScnDataExeAngouMod       int32
	OriginalSourceHeaderSize int32

	IncPropListOfs          int32
	IncPropCnt              int32
	IncPropNameIndexListOfs int32
	IncPropNameIndexCnt     int32
	IncPropNameListOfs      int32
	IncPropNameCnt          int32

	IncCmdListOfs          int32
	IncCmdCnt              int32
	IncCmdNameIndexListOfs int32
	IncCmdNameIndexCnt     int32
	IncCmdNameListOfs      int32
	IncCmdNameCnt          int32

	ScnNameIndexListOfs int32
	ScnNameIndexCnt     int32
	ScnNameListOfs      int32
	ScnNameCnt          int32

	ScnDataIndexListOfs int32
	ScnDataIndexCnt     int32
	ScnDataListOfs      int32
	ScnDataCnt          int32
}

func (h *ArchiveHeader) encode() []byte {
	words := []int32{
		h.HeaderSize, h.ScnDataExeAngouMod, h.OriginalSourceHeaderSize,
		h.IncPropListOfs, h.IncPropCnt, h.IncPropNameIndexListOfs, h.IncPropNameIndexCnt,
		h.IncPropNameListOfs, h.IncPropNameCnt,
		h.IncCmdListOfs, h.IncCmdCnt, h.IncCmdNameIndexListOfs, h.IncCmdNameIndexCnt,
		h.IncCmdNameListOfs, h.IncCmdNameCnt,
		h.ScnNameIndexListOfs, h.ScnNameIndexCnt, h.ScnNameListOfs, h.ScnNameCnt,
		h.ScnDataIndexListOfs, h.ScnDataIndexCnt, h.ScnDataListOfs, h.ScnDataCnt,
	}
	out := make([]byte, archiveHeaderSize)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(w))
	}
	return out
}

func decodeArchiveHeader(buf []byte) (*ArchiveHeader, error) {
	if len(buf) < archiveHeaderSize {
		return nil, newErr(ErrLZSSCorrupt, "", 0, "archive header truncated")
	}
	w := func(i int) int32 { return readHeaderI32(buf, i) }
	return &ArchiveHeader{
		HeaderSize:               w(0),
		ScnDataExeAngouMod:       w(1),
		OriginalSourceHeaderSize: w(2),
		IncPropListOfs:           w(3),
		IncPropCnt:               w(4),
		IncPropNameIndexListOfs:  w(5),
		IncPropNameIndexCnt:      w(6),
		IncPropNameListOfs:       w(7),
		IncPropNameCnt:           w(8),
		IncCmdListOfs:            w(9),
		IncCmdCnt:                w(10),
		IncCmdNameIndexListOfs:   w(11),
		IncCmdNameIndexCnt:       w(12),
		IncCmdNameListOfs:        w(13),
		IncCmdNameCnt:            w(14),
		ScnNameIndexListOfs:      w(15),
		ScnNameIndexCnt:          w(16),
		ScnNameListOfs:           w(17),
		ScnNameCnt:               w(18),
		ScnDataIndexListOfs:      w(19),
		ScnDataIndexCnt:          w(20),
		ScnDataListOfs:           w(21),
		ScnDataCnt:               w(22),
	}, nil
}
