package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

// Worker pool driving the per-scene CA->LA->SA->MA pipeline concurrently
// (§5 "Scheduling model"). BS itself runs afterward on a single logical
// thread per scene, in canonical sorted-filename order, because its
// string-table shuffle shares one PRNG stream across the whole
// compilation (§5 "Ordering guarantees", §9).

// SceneSource is one scene file waiting to be compiled.
type SceneSource struct {
	Path string // absolute/relative source path, basename used as scn_name
	Src  string
}

// compiledScene holds one scene's MA output, ready for the serial BS pass.
type compiledScene struct {
	file string
	name string
	sa   *SAResult
	ma   *MAResult
}

// CompileResult is everything needed to hand a compiled scene set to the
// Linker.
type CompileResult struct {
	Scenes []SceneInput
}

// CompileScenes runs CA->LA->SA->MA for every scene concurrently (bounded
// by cfg.workerCount), then lowers each to bytecode via BS sequentially in
// sorted order so the shuffled string-table PRNG advances deterministically
// regardless of goroutine scheduling.
func CompileScenes(ctx context.Context, cfg *Config, ia *IAResult, sources []SceneSource) (*CompileResult, error) {
	sorted := append([]SceneSource(nil), sources...)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sceneBaseName(sorted[i].Path)) < strings.ToLower(sceneBaseName(sorted[j].Path))
	})

	compiled := make([]*compiledScene, len(sorted))

	g, gctx := errgroup.WithContext(ctx)
	limit := cfg.workerCount(GetNumCPUCores())
	if cfg.Parallel {
		g.SetLimit(limit)
	} else {
		g.SetLimit(1)
	}

	for i, src := range sorted {
		i, src := i, src
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			name := sceneBaseName(src.Path)
			ca, err := RunCA(src.Src, ia, src.Path)
			if err != nil {
				return err
			}
			la, err := RunLA(ca.BodySource, src.Path, ia.NameSet)
			if err != nil {
				return err
			}
			sa, err := RunSA(la, ia, src.Path)
			if err != nil {
				return err
			}
			ma, err := RunMA(sa, ia, src.Path)
			if err != nil {
				return err
			}
			glog.V(1).Infof("compiled %s (ca/la/sa/ma)", name)
			compiled[i] = &compiledScene{file: src.Path, name: name, sa: sa, ma: ma}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	shuffler := NewShuffler()
	scenes := make([]SceneInput, len(compiled))
	for i, c := range compiled {
		bs, err := RunBS(c.ma, c.sa, ia, shuffler, c.file)
		if err != nil {
			return nil, err
		}
		scenes[i] = SceneInput{Name: c.name, Dat: EncodeSceneDat(bs)}
		glog.V(1).Infof("assembled %s.dat (bs)", c.name)
	}

	return &CompileResult{Scenes: scenes}, nil
}

func sceneBaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadSceneSources loads every .ss file directly under dir (non-recursive,
// matching the reference tool's flat scene directory convention).
func ReadSceneSources(dir string) ([]SceneSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []SceneSource
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".ss") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, SceneSource{Path: path, Src: string(data)})
	}
	return out, nil
}
