package main

import (
	"encoding/binary"
	"unicode/utf16"
)

// SanitizeIni strips comments and normalizes case in an ini source the
// same way CA's comment-stripping pass treats scene text (§4.8): a
// scanner tracking quote/comment state, ASCII-lowering outside quotes,
// ';', "//" and "/* */" comments removed, newline inside a quoted string
// is an error.
func SanitizeIni(src string) (string, error) {
	return stripComments(src)
}

// GEIWrite encodes Gameexe.ini into the Gameexe.dat payload of §6: UTF-16LE
// of the sanitized text, LZSS-packed, XORed with the engine baseline key,
// behind an 8-byte <mode=0|1> header that is always written; mode 1 (an
// angou secret of at least 8 bytes) adds a second XOR layer keyed on
// exeAngouElement.
func GEIWrite(iniSrc string, cfg *Config, lzssLevel int) ([]byte, []byte, error) {
	sanitized, err := SanitizeIni(iniSrc)
	if err != nil {
		return nil, nil, err
	}

	units := utf16.Encode([]rune(sanitized))
	raw := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[i*2:], u)
	}

	lz := NewLZSS(lzssLevel).Pack(raw)
	if err := XORCycle(lz, gameexeBaselineKey, 0); err != nil {
		return nil, nil, err
	}

	mode := 0
	var exeHeader []byte
	if len(cfg.AngouSecret) >= 8 {
		exeEl := exeAngouElement(cfg.AngouSecret)
		if err := XORCycle(lz, exeEl, 0); err != nil {
			return nil, nil, err
		}
		mode = 1
		exeHeader = buildExeAngouHeader(exeEl)
	}

	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], 0)
	binary.LittleEndian.PutUint32(header[4:8], uint32(mode))

	out := append(header, lz...)
	return out, exeHeader, nil
}

// GEIRead inverts GEIWrite, returning the sanitized ini text.
func GEIRead(data []byte, cfg *Config) (string, error) {
	if len(data) < 8 {
		return "", &BuildError{Code: ErrLZSSCorrupt, Hint: "Gameexe.dat header truncated"}
	}
	mode := binary.LittleEndian.Uint32(data[4:8])
	body := make([]byte, len(data)-8)
	copy(body, data[8:])

	if mode == 1 {
		if len(cfg.AngouSecret) < 8 {
			return "", &BuildError{Code: ErrAngouMissingKey}
		}
		exeEl := exeAngouElement(cfg.AngouSecret)
		if err := XORCycle(body, exeEl, 0); err != nil {
			return "", err
		}
	}
	if err := XORCycle(body, gameexeBaselineKey, 0); err != nil {
		return "", err
	}
	raw, err := NewLZSS(lzssDefaultLevel).Unpack(body)
	if err != nil {
		return "", err
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	return string(utf16.Decode(units)), nil
}
