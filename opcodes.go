package main

import (
	"bytes"
	"encoding/binary"
)

// Opcode is one stack-machine instruction tag of §4.7's instruction set.
type Opcode byte

const (
	CD_NL Opcode = iota
	CD_PUSH
	CD_POP
	CD_COPY
	CD_PROPERTY
	CD_COPY_ELM
	CD_DEC_PROP
	CD_ELM_POINT
	CD_ARG
	CD_GOTO
	CD_GOTO_TRUE
	CD_GOTO_FALSE
	CD_GOSUB
	CD_GOSUBSTR
	CD_RETURN
	CD_ASSIGN
	CD_OPERATE_1
	CD_OPERATE_2
	CD_COMMAND
	CD_TEXT
	CD_NAME
	CD_SEL_BLOCK_START
	CD_SEL_BLOCK_END
	CD_EOF
)

// opWriter accumulates a byte-addressed instruction stream with
// little-endian i32/u8 immediates, tracking the current offset so BS can
// record label fixups as it emits.
type opWriter struct {
	buf bytes.Buffer
}

func (w *opWriter) offset() int32 { return int32(w.buf.Len()) }

func (w *opWriter) op(op Opcode) { w.buf.WriteByte(byte(op)) }

func (w *opWriter) i32(v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	w.buf.Write(tmp[:])
}

func (w *opWriter) u8(v byte) { w.buf.WriteByte(v) }

func (w *opWriter) bytes() []byte { return w.buf.Bytes() }
