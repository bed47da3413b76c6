package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestArchiveHeaderRoundTrip(t *testing.T) {
	h := &ArchiveHeader{
		HeaderSize:               132,
		ScnDataExeAngouMod:       1,
		OriginalSourceHeaderSize: 68,
		IncPropListOfs:           archiveHeaderSize,
		IncPropCnt:               3,
		IncPropNameIndexListOfs: archiveHeaderSize + 24,
		IncPropNameIndexCnt:     3,
		IncPropNameListOfs:      archiveHeaderSize + 48,
		IncPropNameCnt:          3,
		IncCmdListOfs:           archiveHeaderSize + 60,
		IncCmdCnt:               2,
		IncCmdNameIndexListOfs:  archiveHeaderSize + 76,
		IncCmdNameIndexCnt:      2,
		IncCmdNameListOfs:       archiveHeaderSize + 92,
		IncCmdNameCnt:           2,
		ScnNameIndexListOfs:     archiveHeaderSize + 100,
		ScnNameIndexCnt:         1,
		ScnNameListOfs:          archiveHeaderSize + 108,
		ScnNameCnt:              1,
		ScnDataIndexListOfs:     archiveHeaderSize + 116,
		ScnDataIndexCnt:         1,
		ScnDataListOfs:          archiveHeaderSize + 124,
		ScnDataCnt:              1,
	}

	encoded := h.encode()
	if len(encoded) != archiveHeaderSize {
		t.Fatalf("encoded header length = %d, want %d", len(encoded), archiveHeaderSize)
	}

	padded := append(append([]byte(nil), encoded...), make([]byte, 64)...)
	got, err := decodeArchiveHeader(padded)
	if err != nil {
		t.Fatalf("decodeArchiveHeader failed: %v", err)
	}
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("header round-trip mismatch (-want +got):\n%s", diff)
	}

	if got.ScnNameCnt != got.ScnDataCnt || got.ScnDataCnt != got.ScnDataIndexCnt {
		t.Errorf("scn_name_cnt/scn_data_cnt/scn_data_index_cnt must agree: %d/%d/%d",
			got.ScnNameCnt, got.ScnDataCnt, got.ScnDataIndexCnt)
	}
}

func TestDecodeArchiveHeaderTruncated(t *testing.T) {
	if _, err := decodeArchiveHeader(make([]byte, archiveHeaderSize-1)); err == nil {
		t.Fatal("expected an error decoding a truncated archive header")
	}
}

// TestLinkerScnNameCntMatchesEntryCount drives the real
// Linker.assemble/EncodeSceneDat path with multi-character scene
// basenames (unlike TestArchiveHeaderRoundTrip's hand-built single
// 1-code-unit header) so it actually exercises the code-unit-vs-entry-
// count distinction property 7 depends on.
func TestLinkerScnNameCntMatchesEntryCount(t *testing.T) {
	ia := &IAResult{}

	names := []string{"opening", "chapter_one", "true_end"}
	scenes := make([]SceneInput, len(names))
	for i, name := range names {
		bs := &BSResult{ScnBytes: []byte{byte(CD_EOF)}}
		scenes[i] = SceneInput{Name: name, Dat: EncodeSceneDat(bs)}
	}

	cfg := &Config{NoAngou: true, LZSSLevel: lzssDefaultLevel}
	linker := NewLinker(ia, cfg)

	result, err := linker.Link(scenes, nil, nil)
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	hdr, err := decodeArchiveHeader(result.NoAngou)
	if err != nil {
		t.Fatalf("decodeArchiveHeader failed: %v", err)
	}

	if hdr.ScnNameCnt != int32(len(names)) {
		t.Errorf("scn_name_cnt = %d, want %d (entry count, not UTF-16 code-unit count)",
			hdr.ScnNameCnt, len(names))
	}
	if hdr.ScnNameCnt != hdr.ScnDataCnt || hdr.ScnDataCnt != hdr.ScnDataIndexCnt {
		t.Errorf("scn_name_cnt/scn_data_cnt/scn_data_index_cnt must agree: %d/%d/%d",
			hdr.ScnNameCnt, hdr.ScnDataCnt, hdr.ScnDataIndexCnt)
	}
}
