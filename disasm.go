package main

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Disassembler produces a diagnostic linear listing of a scene's bytecode
// (§4.11). It never participates in round-trip compilation: output is for
// human inspection only.

var opcodeNames = map[Opcode]string{
	CD_NL:              "nl",
	CD_PUSH:            "push",
	CD_POP:             "pop",
	CD_COPY:            "copy",
	CD_PROPERTY:        "property",
	CD_COPY_ELM:        "copy_elm",
	CD_DEC_PROP:        "dec_prop",
	CD_ELM_POINT:       "elm_point",
	CD_ARG:             "arg",
	CD_GOTO:            "goto",
	CD_GOTO_TRUE:       "goto_true",
	CD_GOTO_FALSE:      "goto_false",
	CD_GOSUB:           "gosub",
	CD_GOSUBSTR:        "gosubstr",
	CD_RETURN:          "return",
	CD_ASSIGN:          "assign",
	CD_OPERATE_1:       "operate_1",
	CD_OPERATE_2:       "operate_2",
	CD_COMMAND:         "command",
	CD_TEXT:            "text",
	CD_NAME:            "name",
	CD_SEL_BLOCK_START: "sel_block_start",
	CD_SEL_BLOCK_END:   "sel_block_end",
	CD_EOF:             "eof",
}

// DisasmLine is one decoded instruction, ready for textual rendering.
type DisasmLine struct {
	Offset int32
	Text   string
}

type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) i32() int32 {
	v := int32(binary.LittleEndian.Uint32(r.buf[r.pos:]))
	r.pos += 4
	return v
}

func (r *byteReader) u8() byte {
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *byteReader) done() bool { return r.pos >= len(r.buf) }

// resolveStr decodes the string at original id origID from a decoded
// scene's shuffled, XOR-keyed string blob (the inverse of bs.go's finish).
func resolveStr(sec *SceneDatSections, origID int32) (string, bool) {
	if origID < 0 || int(origID) >= len(sec.StrIndexList) {
		return "", false
	}
	slot := sec.StrIndexList[origID]
	start := int(slot.Offset) * 2
	end := start + int(slot.Length)*2
	if start < 0 || end > len(sec.StrBlob) {
		return "", false
	}
	units := make([]uint16, slot.Length)
	for i := range units {
		raw := binary.LittleEndian.Uint16(sec.StrBlob[start+i*2:])
		units[i] = raw ^ uint16((28807*int(origID))&0xFFFF)
	}
	return string(decodeUTF16(units)), true
}

func decodeUTF16(units []uint16) []rune {
	var out []rune
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) {
			u2 := units[i+1]
			if u2 >= 0xDC00 && u2 <= 0xDFFF {
				r := (rune(u-0xD800)<<10 | rune(u2-0xDC00)) + 0x10000
				out = append(out, r)
				i++
				continue
			}
		}
		out = append(out, rune(u))
	}
	return out
}

// elementName best-guesses the symbolic name of a packed element code by
// scanning the shared IA catalogs; falls back to the raw code.
func elementName(ia *IAResult, code int32) string {
	for _, c := range ia.Commands {
		if c.Code == code {
			return c.Name
		}
	}
	for _, p := range ia.Properties {
		if p.Code == code {
			return p.Name
		}
	}
	return fmt.Sprintf("elm<%#x>", uint32(code))
}

// Disassemble performs a linear decode of one scene's bytecode, resolving
// string literals against its string table and annotating CD_COMMAND with
// the best-guess symbolic name of the element pushed immediately before it
// by the preceding CD_ELM_POINT/CD_PUSH pair.
func Disassemble(sec *SceneDatSections, ia *IAResult) []DisasmLine {
	r := &byteReader{buf: sec.ScnBytes}
	var lines []DisasmLine
	var lastElmCode int32
	haveElmCode := false
	afterElmPoint := false

	for !r.done() {
		off := int32(r.pos)
		op := Opcode(r.u8())
		name := opcodeNames[op]
		if name == "" {
			name = fmt.Sprintf("op<%d>", op)
		}
		var parts []string

		switch op {
		case CD_NL:
			line := r.i32()
			parts = append(parts, fmt.Sprintf("line=%d", line))
		case CD_PUSH:
			form := Form(r.i32())
			val := r.i32()
			if form == FormStr {
				if s, ok := resolveStr(sec, val); ok {
					parts = append(parts, fmt.Sprintf("%s %q", form, s))
				} else {
					parts = append(parts, fmt.Sprintf("%s str#%d", form, val))
				}
			} else {
				parts = append(parts, fmt.Sprintf("%s %d", form, val))
			}
			if afterElmPoint {
				haveElmCode = form == FormInt
				lastElmCode = val
			}
		case CD_POP, CD_COPY:
			form := Form(r.i32())
			parts = append(parts, form.String())
		case CD_PROPERTY, CD_COPY_ELM, CD_ARG, CD_ELM_POINT:
			// no operand
		case CD_DEC_PROP:
			form := Form(r.i32())
			propID := r.i32()
			parts = append(parts, fmt.Sprintf("%s prop#%d", form, propID))
		case CD_GOTO, CD_GOTO_TRUE, CD_GOTO_FALSE:
			label := r.i32()
			parts = append(parts, fmt.Sprintf("L%d", label))
		case CD_GOSUB, CD_GOSUBSTR:
			label := r.i32()
			argc := r.i32()
			parts = append(parts, fmt.Sprintf("L%d argc=%d", label, argc))
		case CD_RETURN:
			hasValue := r.i32()
			if hasValue != 0 {
				form := Form(r.i32())
				parts = append(parts, form.String())
			}
		case CD_ASSIGN:
			lform := Form(r.i32())
			rform := Form(r.i32())
			alID := r.i32()
			parts = append(parts, fmt.Sprintf("%s <- %s ref=%d", lform, rform, alID))
		case CD_OPERATE_1:
			form := Form(r.i32())
			unop := r.u8()
			parts = append(parts, fmt.Sprintf("%s op=%d", form, unop))
		case CD_OPERATE_2:
			lform := Form(r.i32())
			rform := Form(r.i32())
			binop := r.u8()
			parts = append(parts, fmt.Sprintf("%s,%s op=%d", lform, rform, binop))
		case CD_COMMAND:
			overloadID := r.i32()
			argc := r.i32()
			argForms := make([]string, argc)
			for i := range argForms {
				argForms[i] = Form(r.i32()).String()
			}
			namedCnt := r.i32()
			slots := make([]string, namedCnt)
			for i := range slots {
				slots[i] = fmt.Sprintf("#%d", r.i32())
			}
			retForm := Form(r.i32())
			sym := "?"
			if haveElmCode {
				sym = elementName(ia, lastElmCode)
			}
			parts = append(parts, fmt.Sprintf("%s overload=%d args=(%s) named=(%s) -> %s",
				sym, overloadID, strings.Join(argForms, ","), strings.Join(slots, ","), retForm))
		case CD_TEXT:
			idx := r.i32()
			parts = append(parts, fmt.Sprintf("read_flag#%d", idx))
		case CD_NAME, CD_SEL_BLOCK_START, CD_SEL_BLOCK_END, CD_EOF:
			// no operand
		}
		afterElmPoint = op == CD_ELM_POINT

		lines = append(lines, DisasmLine{Offset: off, Text: name + " " + strings.Join(parts, " ")})
	}
	return lines
}
