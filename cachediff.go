package main

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// --debug support: when a --tmp cache entry already exists for a scene,
// report a unified-diff-style summary against the freshly compiled output
// before overwriting it, so a developer can see exactly what a rebuild
// changed (§6 "Debugging").

var dmp = diffmatchpatch.New()

// diffCachedDat renders a readable diff between a scene's previously
// cached .dat bytes and its freshly built ones. Binary bytes are rendered
// as hex lines first; diffmatchpatch then diffs those lines, which is far
// more legible than a raw byte-level diff for fixed-width binary records.
func diffCachedDat(sceneName string, oldDat, newDat []byte) string {
	if bytesEqual(oldDat, newDat) {
		return ""
	}
	oldLines := hexLines(oldDat)
	newLines := hexLines(newDat)
	a, b, lineArr := dmp.DiffLinesToChars(oldLines, newLines)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArr)
	return fmt.Sprintf("--- %s (cached)\n+++ %s (new)\n%s", sceneName, sceneName, dmp.DiffPrettyText(diffs))
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// hexLines renders data as one hex-encoded line per 16 bytes, giving
// diffmatchpatch's line-mode diff a stable unit to align on.
func hexLines(data []byte) string {
	var out []byte
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		for _, b := range data[i:end] {
			out = append(out, hexDigit(b>>4), hexDigit(b&0xF))
		}
		out = append(out, '\n')
	}
	return string(out)
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'a' + (n - 10)
}
