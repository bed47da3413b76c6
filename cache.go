package main

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// Incremental build cache: persisted MD5 digests of every .inc/.ss input
// under --tmp, plus each scene's compiled .dat as the baseline for the
// --debug diff (§6 "Persisted state"). Every scene is still recompiled on
// each run; a cached .dat is never reused in place of compiling a scene.

const buildCacheFileName = "_md5.json"

// BuildCache mirrors <tmp>/_md5.json's on-disk shape.
type BuildCache struct {
	Inc map[string]string `json:"inc"`
	Ss  map[string]string `json:"ss"`
}

func newBuildCache() *BuildCache {
	return &BuildCache{Inc: map[string]string{}, Ss: map[string]string{}}
}

// loadBuildCache reads <tmp>/_md5.json, returning an empty cache if absent
// or unreadable (a cold build, not an error).
func loadBuildCache(tmpDir string) *BuildCache {
	cache := newBuildCache()
	if tmpDir == "" {
		return cache
	}
	data, err := os.ReadFile(filepath.Join(tmpDir, buildCacheFileName))
	if err != nil {
		return cache
	}
	if err := json.Unmarshal(data, cache); err != nil {
		return newBuildCache()
	}
	return cache
}

// save writes the cache atomically (temp file + rename) so a crash mid-write
// never leaves a truncated _md5.json behind.
func (bc *BuildCache) save(tmpDir string) error {
	if tmpDir == "" {
		return nil
	}
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(bc, "", "  ")
	if err != nil {
		return err
	}
	final := filepath.Join(tmpDir, buildCacheFileName)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// incChanged reports whether name's content differs from the cached digest
// (keys are lowercased, matching the toolchain's case-insensitive filename
// handling elsewhere, e.g. worker.go's sceneBaseName sort).
func (bc *BuildCache) incChanged(name string, content []byte) bool {
	return bc.Inc[strings.ToLower(name)] != md5Hex(content)
}

func (bc *BuildCache) ssChanged(name string, content []byte) bool {
	return bc.Ss[strings.ToLower(name)] != md5Hex(content)
}

func (bc *BuildCache) putInc(name string, content []byte) {
	bc.Inc[strings.ToLower(name)] = md5Hex(content)
}

func (bc *BuildCache) putSs(name string, content []byte) {
	bc.Ss[strings.ToLower(name)] = md5Hex(content)
}

// cachedSceneDatPath and cachedOriginalSourcePath locate a stage's cached
// output beneath --tmp, per §6: <tmp>/bs/<scene>.dat and
// <tmp>/os/<rel_path>.
func cachedSceneDatPath(tmpDir, scene string) string {
	return filepath.Join(tmpDir, "bs", scene+".dat")
}

func cachedOriginalSourcePath(tmpDir, relPath string) string {
	return filepath.Join(tmpDir, "os", relPath)
}

// writeCachedFile writes data to path, creating parent directories as
// needed; used for both bs/ and os/ cache entries.
func writeCachedFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// readCachedFile reads a cache entry, returning ok=false (not an error) if
// it's missing -- a cold cache for that one scene/source is routine.
func readCachedFile(path string) (data []byte, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// cacheCompiledScenes persists every freshly built scene .dat under
// <tmp>/bs/, diffing against whatever was cached from a previous build
// when --debug is set (§6 "Debugging").
func cacheCompiledScenes(cfg *Config, scenes []SceneInput) error {
	for _, scn := range scenes {
		path := cachedSceneDatPath(cfg.TmpDir, scn.Name)
		if cfg.Debug {
			if old, ok := readCachedFile(path); ok {
				if d := diffCachedDat(scn.Name, old, scn.Dat); d != "" {
					glog.V(1).Infof("%s changed since last build:\n%s", scn.Name, d)
				}
			}
		}
		if err := writeCachedFile(path, scn.Dat); err != nil {
			return err
		}
	}
	return nil
}
