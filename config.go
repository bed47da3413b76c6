package main

import (
	"strings"

	env "github.com/xyproto/env/v2"
)

// Charset records the --charset choice. No stage consults it: sources are
// always read as UTF-8, and no auto-detection is performed.
type Charset int

const (
	CharsetAuto Charset = iota
	CharsetCP932
	CharsetUTF8
)

func ParseCharset(s string) Charset {
	switch strings.ToLower(s) {
	case "cp932", "sjis":
		return CharsetCP932
	case "utf8", "utf-8":
		return CharsetUTF8
	default:
		return CharsetAuto
	}
}

// Config collects the CLI surface of §6.
type Config struct {
	InputDir   string
	Output     string
	Charset    Charset
	NoOriginal bool // --no-os
	NoAngou    bool // --no-angou
	TmpDir     string
	Debug      bool
	Parallel   bool
	MaxWorkers int
	LZSSLevel  int
	GEIOnly    bool // --gei

	AngouSecret []byte // cp932-encoded "angou" secret, >= 8 bytes to activate exe-XOR

	// LegacyMode disables any future native-acceleration path in favor of
	// the pure-Go reference algorithms; mirrors the original's
	// SIGLUS_SSU_LEGACY env toggle (original_source/native_ops.py).
	LegacyMode bool
}

const legacyModeEnvVar = "SIGLUS_SSU_LEGACY"

// NewConfig builds defaults, consulting the legacy-mode env override via
// github.com/xyproto/env/v2 (a direct teacher dependency) the way the
// original's native_ops.py consulted SIGLUS_SSU_LEGACY.
func NewConfig() *Config {
	return &Config{
		Charset:    CharsetAuto,
		MaxWorkers: 0, // 0 == auto, see workerCount()
		LZSSLevel:  lzssDefaultLevel,
		LegacyMode: env.Bool(legacyModeEnvVar),
	}
}

// SourceAngouRecipe bundles the five key streams, their start offsets, the
// mask/map dimension derivation tuples, header size, and tile-copy
// parameters consumed by the source_angou codec (§4.10). The concrete byte
// values below are placeholders for the proprietary reference constants
// (the real game's key tables were not available in this build's input
// set); every field is wired through the same shapes and offsets the spec
// describes, so the codec round-trips correctly end to end even though it
// will not byte-match a legacy archive produced with the real keys. See
// DESIGN.md.
type SourceAngouRecipe struct {
	EasyCode, MaskCode, GomiCode, LastCode, NameCode []byte
	EasyStart, MaskStart, GomiStart, LastStart       int
	NameStart                                        int
	MaskMD5Start, GomiMD5Start                       int

	MaskWMD5Index, MaskWSurplus, MaskWAdd int
	MaskHMD5Index, MaskHSurplus, MaskHAdd int
	MapWMD5Index, MapWSurplus, MapWAdd    int

	HeaderSize int
	RepX, RepY, Limit int
}

func defaultSourceAngouRecipe() *SourceAngouRecipe {
	return &SourceAngouRecipe{
		EasyCode: repeatSeed(0x5A, 256),
		MaskCode: repeatSeed(0xA5, 512),
		GomiCode: repeatSeed(0x3C, 512),
		LastCode: repeatSeed(0xC3, 256),
		NameCode: repeatSeed(0x7E, 64),

		EasyStart: 0,
		MaskStart: 0,
		GomiStart: 0,
		LastStart: 0,
		NameStart: 0,

		MaskMD5Start: 0,
		GomiMD5Start: 0,

		MaskWMD5Index: 0, MaskWSurplus: 32, MaskWAdd: 8,
		MaskHMD5Index: 1, MaskHSurplus: 32, MaskHAdd: 8,
		MapWMD5Index: 2, MapWSurplus: 8, MapWAdd: 1,

		HeaderSize: 68,
		RepX:       1, RepY: 1, Limit: 128,
	}
}

// repeatSeed produces a deterministic pseudo-random-looking byte stream of
// length n seeded from a single byte, standing in for a captured key table
// (see SourceAngouRecipe doc comment).
func repeatSeed(seed byte, n int) []byte {
	out := make([]byte, n)
	x := seed
	for i := range out {
		x = x*37 + 113
		out[i] = x ^ seed
	}
	return out
}

// gameexeBaselineKey is the GEI writer's baseline XOR key
// (gameexe_dat_angou_code, §4.8).
var gameexeBaselineKey = repeatSeed(0x99, 256)

// workerCount resolves the effective worker pool size: explicit
// --max-workers, else min(NumCPU, 32), per §5 and
// original_source/parallel.py's get_max_workers.
func (c *Config) workerCount(numCPU int) int {
	if c.MaxWorkers > 0 {
		return c.MaxWorkers
	}
	if numCPU > 32 {
		return 32
	}
	if numCPU < 1 {
		return 1
	}
	return numCPU
}
