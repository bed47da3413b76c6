package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildCacheDetectsChanges(t *testing.T) {
	bc := newBuildCache()
	bc.putInc("A.INC", []byte("content v1"))

	if bc.incChanged("a.inc", []byte("content v1")) {
		t.Error("unchanged content (case-insensitive name) reported as changed")
	}
	if !bc.incChanged("a.inc", []byte("content v2")) {
		t.Error("changed content not detected")
	}
	if !bc.incChanged("never-seen.inc", []byte("anything")) {
		t.Error("a name absent from the cache must report as changed")
	}
}

func TestBuildCacheSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	bc := newBuildCache()
	bc.putInc("base.inc", []byte("base"))
	bc.putSs("scene01.ss", []byte("scene body"))

	if err := bc.save(dir); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, buildCacheFileName)); err != nil {
		t.Fatalf("expected %s to exist: %v", buildCacheFileName, err)
	}

	loaded := loadBuildCache(dir)
	if loaded.incChanged("base.inc", []byte("base")) {
		t.Error("reloaded cache lost the inc digest")
	}
	if loaded.ssChanged("scene01.ss", []byte("scene body")) {
		t.Error("reloaded cache lost the ss digest")
	}
}

func TestLoadBuildCacheMissingIsEmpty(t *testing.T) {
	bc := loadBuildCache(t.TempDir())
	if len(bc.Inc) != 0 || len(bc.Ss) != 0 {
		t.Error("a cold cache directory should yield an empty cache, not an error")
	}
}

func TestCachedFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := cachedSceneDatPath(dir, "scene01")
	data := []byte{1, 2, 3, 4}
	if err := writeCachedFile(path, data); err != nil {
		t.Fatalf("writeCachedFile failed: %v", err)
	}
	got, ok := readCachedFile(path)
	if !ok {
		t.Fatal("expected cached file to be readable")
	}
	if string(got) != string(data) {
		t.Errorf("got %v, want %v", got, data)
	}

	if _, ok := readCachedFile(cachedSceneDatPath(dir, "missing")); ok {
		t.Error("expected a missing cache entry to report ok=false")
	}
}
