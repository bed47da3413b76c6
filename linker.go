package main

import (
	"encoding/binary"
	"path/filepath"
	"sort"
	"strings"
)

// Linker assembles per-scene .dat blobs and the shared IA tables into the
// final Scene.pck, per §4.9's pipeline.
type Linker struct {
	ia       *IAResult
	cfg      *Config
	easyCode []byte
}

// easyAngouCode is the linker-observed easy-XOR key applied to every
// compressed scene blob (scn_data_exe_angou_mod == 0 variant), distinct
// from source_angou's own "easy" stream.
var easyAngouCode = repeatSeed(0x2B, 256)

func NewLinker(ia *IAResult, cfg *Config) *Linker {
	return &Linker{ia: ia, cfg: cfg, easyCode: easyAngouCode}
}

// SceneInput is one compiled scene ready for linking: its basename (used
// to derive scn_name) and its raw (uncompressed) .dat bytes.
type SceneInput struct {
	Name string // .ss basename, no extension
	Dat  []byte
}

// packScene LZSS-packs and easy-XORs a scene's .dat bytes (§4.9 step 2),
// then optionally applies the exe-XOR layer on top (step 3) when a
// secret is configured.
func (l *Linker) packScene(dat []byte, lzssLevel int) (plain, exeVariant []byte, err error) {
	lz := NewLZSS(lzssLevel).Pack(dat)
	if err := XORCycle(lz, l.easyCode, 0); err != nil {
		return nil, nil, err
	}
	plain = lz

	if len(l.cfg.AngouSecret) < 8 {
		return plain, nil, nil
	}
	exeEl := exeAngouElement(l.cfg.AngouSecret)
	exeVariant = append([]byte(nil), lz...)
	if err := XORCycle(exeVariant, exeEl, 0); err != nil {
		return nil, nil, err
	}
	return plain, exeVariant, nil
}

// resolveIncCmdList walks every scene's cmd_label_list, rewriting
// linker-visible inc_cmd_list[cmd_id] = (scene_no, offset), erroring if a
// pre-declared command id is never defined or is defined twice (§4.9
// step 1, §3 invariant).
func (l *Linker) resolveIncCmdList(scenes []SceneInput, decoded []*SceneDatSections) (map[int32][2]int32, error) {
	incCmdList := make(map[int32][2]int32)
	declared := make(map[int32]bool)
	for _, cmd := range l.ia.Commands[:l.ia.IncCommandCnt] {
		declared[cmd.Code] = true
	}
	defined := make(map[int32]bool)
	for sceneNo, sec := range decoded {
		for _, e := range sec.CmdLabelList {
			if !declared[e.CmdID] {
				continue
			}
			if defined[e.CmdID] {
				return nil, newErr(ErrLinkCmdMultiplyDefined, scenes[sceneNo].Name, 0, "")
			}
			defined[e.CmdID] = true
			incCmdList[e.CmdID] = [2]int32{int32(sceneNo), e.Offset}
		}
	}
	for _, cmd := range l.ia.Commands[:l.ia.IncCommandCnt] {
		if !defined[cmd.Code] {
			return nil, newErr(ErrLinkCmdNotDefined, cmd.Name, 0, "pre-declared command never defined")
		}
	}
	return incCmdList, nil
}

// ArchiveResult is the final linked archive. Exactly one variant is
// filled: Pck for a normal build, or, in --no-angou QA mode, NoAngou, the
// uncompressed/unencrypted variant sharing the same header layout.
type ArchiveResult struct {
	Pck      []byte
	NoAngou  []byte
	ExeAngou bool
}

// Link runs the full pipeline of §4.9 over a set of compiled scenes,
// given in the canonical (sorted-filename) compilation order.
func (l *Linker) Link(scenes []SceneInput, originalSources map[string][]byte, sourceAngou *SourceAngou) (*ArchiveResult, error) {
	sorted := append([]SceneInput(nil), scenes...)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	decoded := make([]*SceneDatSections, len(sorted))
	for i, s := range sorted {
		sec, err := DecodeSceneDat(s.Dat)
		if err != nil {
			return nil, err
		}
		decoded[i] = sec
	}

	cmdSceneOf, err := l.resolveIncCmdList(sorted, decoded)
	if err != nil {
		return nil, err
	}

	if l.cfg.NoAngou {
		bodies := make([][]byte, len(sorted))
		for i, s := range sorted {
			bodies[i] = s.Dat
		}
		out, err := l.assemble(sorted, bodies, cmdSceneOf, false, nil, nil)
		if err != nil {
			return nil, err
		}
		return &ArchiveResult{NoAngou: out}, nil
	}

	var bodies [][]byte
	exeMod := false
	for _, s := range sorted {
		plain, exeVariant, err := l.packScene(s.Dat, l.cfg.LZSSLevel)
		if err != nil {
			return nil, err
		}
		if exeVariant != nil {
			bodies = append(bodies, exeVariant)
			exeMod = true
		} else {
			bodies = append(bodies, plain)
		}
	}

	pck, err := l.assemble(sorted, bodies, cmdSceneOf, exeMod, originalSources, sourceAngou)
	if err != nil {
		return nil, err
	}
	return &ArchiveResult{Pck: pck, ExeAngou: exeMod}, nil
}

// assemble lays out the Scene.pck header and its 11 sections (§6): the
// inc_prop/inc_cmd catalogs straight from IA, scn_name derived from
// basenames, scn_data as the already-packed scene bodies, and an
// optional original-sources appendix.
func (l *Linker) assemble(scenes []SceneInput, bodies [][]byte, cmdSceneOf map[int32][2]int32, exeMod bool, originalSources map[string][]byte, sourceAngou *SourceAngou) ([]byte, error) {
	b := newSectionBuilder(archiveHeaderSize)

	incPropList := make([]byte, len(l.ia.Properties)*8)
	var incPropNames []string
	for i, p := range l.ia.Properties {
		binary.LittleEndian.PutUint32(incPropList[i*8:], uint32(p.ReturnForm))
		binary.LittleEndian.PutUint32(incPropList[i*8+4:], uint32(p.Size))
		incPropNames = append(incPropNames, p.Name)
	}
	incPropNameBlob, incPropNameIdx := buildNameTable(incPropNames)

	incCmdList := make([]byte, len(l.ia.Commands)*8)
	var incCmdNames []string
	for i, c := range l.ia.Commands {
		loc := cmdSceneOf[c.Code]
		binary.LittleEndian.PutUint32(incCmdList[i*8:], uint32(loc[0]))
		binary.LittleEndian.PutUint32(incCmdList[i*8+4:], uint32(loc[1]))
		incCmdNames = append(incCmdNames, c.Name)
	}
	incCmdNameBlob, incCmdNameIdx := buildNameTable(incCmdNames)

	var scnNames []string
	for _, s := range scenes {
		scnNames = append(scnNames, strings.ToLower(s.Name))
	}
	scnNameBlob, scnNameIdx := buildNameTable(scnNames)

	scnDataIdx := make([]StrSlice, len(bodies))
	var scnDataBlob []byte
	for i, body := range bodies {
		scnDataIdx[i] = StrSlice{Offset: int32(len(scnDataBlob)), Length: int32(len(body))}
		scnDataBlob = append(scnDataBlob, body...)
	}

	incPropOff := b.append(incPropList)
	incPropNameIdxOff := b.append(encodeSlicePairs(incPropNameIdx))
	incPropNameOff := b.append(incPropNameBlob)
	incCmdOff := b.append(incCmdList)
	incCmdNameIdxOff := b.append(encodeSlicePairs(incCmdNameIdx))
	incCmdNameOff := b.append(incCmdNameBlob)
	scnNameIdxOff := b.append(encodeSlicePairs(scnNameIdx))
	scnNameOff := b.append(scnNameBlob)
	scnDataIdxOff := b.append(encodeSlicePairs(scnDataIdx))
	scnDataOff := b.append(scnDataBlob)

	headerSize := int32(archiveHeaderSize)
	if l.cfg.NoAngou {
		headerSize = 0
	}

	var origHeaderSize int32
	if originalSources != nil && sourceAngou != nil && !l.cfg.NoOriginal {
		appendix, sz, err := encodeOriginalSourceAppendix(originalSources, sourceAngou)
		if err != nil {
			return nil, err
		}
		b.append(appendix)
		origHeaderSize = sz
	}

	hdr := &ArchiveHeader{
		HeaderSize:               headerSize,
		ScnDataExeAngouMod:       boolToI32(exeMod),
		OriginalSourceHeaderSize: origHeaderSize,

		IncPropListOfs:          incPropOff,
		IncPropCnt:              int32(len(l.ia.Properties)),
		IncPropNameIndexListOfs: incPropNameIdxOff,
		IncPropNameIndexCnt:     int32(len(incPropNameIdx)),
		IncPropNameListOfs:      incPropNameOff,
		IncPropNameCnt:          int32(len(incPropNameIdx)),

		IncCmdListOfs:          incCmdOff,
		IncCmdCnt:              int32(len(l.ia.Commands)),
		IncCmdNameIndexListOfs: incCmdNameIdxOff,
		IncCmdNameIndexCnt:     int32(len(incCmdNameIdx)),
		IncCmdNameListOfs:      incCmdNameOff,
		IncCmdNameCnt:          int32(len(incCmdNameIdx)),

		ScnNameIndexListOfs: scnNameIdxOff,
		ScnNameIndexCnt:     int32(len(scnNameIdx)),
		ScnNameListOfs:      scnNameOff,
		ScnNameCnt:          int32(len(scnNameIdx)),

		ScnDataIndexListOfs: scnDataIdxOff,
		ScnDataIndexCnt:     int32(len(scnDataIdx)),
		ScnDataListOfs:      scnDataOff,
		ScnDataCnt:          int32(len(bodies)),
	}
	copy(b.buf[:archiveHeaderSize], hdr.encode())
	return b.bytes(), nil
}

func boolToI32(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

// encodeOriginalSourceAppendix wraps every original source file under
// originalSources (relative path -> bytes) in its own source_angou
// envelope, preceded by an encrypted size table, per §4.9/§4.11.
func encodeOriginalSourceAppendix(originalSources map[string][]byte, sa *SourceAngou) ([]byte, int32, error) {
	var names []string
	for name := range originalSources {
		names = append(names, name)
	}
	sort.Strings(names)

	var chunks [][]byte
	sizes := make([]int32, len(names))
	for i, name := range names {
		chunk, err := sa.Encode(originalSources[name], filepath.ToSlash(name))
		if err != nil {
			return nil, 0, err
		}
		chunks = append(chunks, chunk)
		sizes[i] = int32(len(chunk))
	}

	sizeTable := encodeI32List(sizes)
	encSizeTable, err := sa.Encode(sizeTable, "__DummyName__")
	if err != nil {
		return nil, 0, err
	}

	var out []byte
	out = append(out, encSizeTable...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out, int32(len(encSizeTable)), nil
}
