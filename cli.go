package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// User-facing command-line interface: two subcommands (compile, extract)
// plus a --gei-only shortcut, mirroring the flag surface of §6.

// CommandContext holds parsed global flags shared by every subcommand.
type CommandContext struct {
	Cfg      *Config
	InputDir string
	Output   string
}

// RunCLI dispatches to the requested subcommand. Returns the process exit
// code per §6: 0 success, 1 runtime error, 2 usage error.
func RunCLI(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	subcmd := args[0]
	rest := args[1:]

	switch subcmd {
	case "compile":
		return runCompile(rest)
	case "extract":
		return runExtract(rest)
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "version", "--version":
		fmt.Println(versionString)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", subcmd)
		printUsage()
		return 2
	}
}

func runCompile(args []string) int {
	cfg := NewConfig()
	var inputDir, output string

	i := 0
	for i < len(args) {
		a := args[i]
		switch {
		case a == "--charset" && i+1 < len(args):
			cfg.Charset = ParseCharset(args[i+1])
			i += 2
		case a == "--no-os":
			cfg.NoOriginal = true
			i++
		case a == "--no-angou":
			cfg.NoAngou = true
			i++
		case a == "--tmp" && i+1 < len(args):
			cfg.TmpDir = args[i+1]
			i += 2
		case a == "--debug":
			cfg.Debug = true
			i++
		case a == "--parallel":
			cfg.Parallel = true
			i++
		case a == "--max-workers" && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --max-workers value: %s\n", args[i+1])
				return 2
			}
			cfg.MaxWorkers = n
			i += 2
		case a == "--lzss-level" && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --lzss-level value: %s\n", args[i+1])
				return 2
			}
			cfg.LZSSLevel = n
			i += 2
		case a == "--gei":
			cfg.GEIOnly = true
			i++
		case strings.HasPrefix(a, "-"):
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", a)
			return 2
		default:
			if inputDir == "" {
				inputDir = a
			} else if output == "" {
				output = a
			}
			i++
		}
	}

	if inputDir == "" || (output == "" && !cfg.GEIOnly) {
		fmt.Fprintln(os.Stderr, "usage: compile <input_dir> <output> [flags]")
		return 2
	}

	if err := compileArchive(cfg, inputDir, output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runExtract(args []string) int {
	cfg := NewConfig()
	var archivePath, outDir string
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", a)
			return 2
		}
		if archivePath == "" {
			archivePath = a
		} else if outDir == "" {
			outDir = a
		}
	}
	if archivePath == "" || outDir == "" {
		fmt.Fprintln(os.Stderr, "usage: extract <Scene.pck> <out_dir>")
		return 2
	}

	if err := extractArchive(cfg, archivePath, outDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// compileArchive runs the full pipeline: read scene sources, build the
// include table, compile every scene, link, and write Scene.pck (or just
// Gameexe.dat under --gei).
func compileArchive(cfg *Config, inputDir, output string) error {
	incFiles, err := readIncludeFiles(inputDir)
	if err != nil {
		return err
	}
	ia, err := BuildIncludeAnalyzer(incFiles)
	if err != nil {
		return err
	}

	if iniPath := filepath.Join(inputDir, "Gameexe.ini"); fileExists(iniPath) {
		ini, err := os.ReadFile(iniPath)
		if err != nil {
			return err
		}
		dat, _, err := GEIWrite(string(ini), cfg, cfg.LZSSLevel)
		if err != nil {
			return err
		}
		geiOut := output
		if cfg.GEIOnly {
			geiOut = output
		} else {
			geiOut = filepath.Join(filepath.Dir(output), "Gameexe.dat")
		}
		if err := os.WriteFile(geiOut, dat, 0o644); err != nil {
			return err
		}
		glog.Infof("wrote %s", geiOut)
	}
	if cfg.GEIOnly {
		return nil
	}

	sources, err := ReadSceneSources(inputDir)
	if err != nil {
		return err
	}
	glog.Infof("compiling %d scene(s) from %s", len(sources), inputDir)

	var buildCache *BuildCache
	if cfg.TmpDir != "" {
		buildCache = loadBuildCache(cfg.TmpDir)
		for name, content := range incFiles {
			buildCache.putInc(name, []byte(content))
		}
		for _, src := range sources {
			buildCache.putSs(sceneBaseName(src.Path), []byte(src.Src))
		}
		if err := buildCache.save(cfg.TmpDir); err != nil {
			return err
		}
	}

	compiled, err := CompileScenes(context.Background(), cfg, ia, sources)
	if err != nil {
		return err
	}

	if cfg.TmpDir != "" {
		if err := cacheCompiledScenes(cfg, compiled.Scenes); err != nil {
			return err
		}
	}

	linker := NewLinker(ia, cfg)
	var originalSources map[string][]byte
	var sourceAngou *SourceAngou
	if !cfg.NoOriginal {
		originalSources, err = collectOriginalSources(inputDir)
		if err != nil {
			return err
		}
		sourceAngou = NewSourceAngou(defaultSourceAngouRecipe(), cfg.LZSSLevel)
	}

	result, err := linker.Link(compiled.Scenes, originalSources, sourceAngou)
	if err != nil {
		return err
	}

	out := result.Pck
	if cfg.NoAngou {
		out = result.NoAngou
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return err
	}
	glog.Infof("wrote %s (%d bytes, exe_angou=%v)", output, len(out), result.ExeAngou)
	return nil
}

func extractArchive(cfg *Config, archivePath, outDir string) error {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return err
	}
	ex := NewExtractor(cfg)
	result, err := ex.Extract(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, scn := range result.Scenes {
		path := filepath.Join(outDir, scn.Name+".dat")
		if err := os.WriteFile(path, scn.Dat, 0o644); err != nil {
			return err
		}
	}
	glog.Infof("extracted %d scene(s) to %s", len(result.Scenes), outDir)
	if result.OriginalSources != nil {
		osDir := filepath.Join(outDir, "original_sources")
		for rel, data := range result.OriginalSources {
			path := filepath.Join(osDir, rel)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
		}
		glog.Infof("extracted %d original source file(s) to %s", len(result.OriginalSources), osDir)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// readIncludeFiles loads every .inc file directly under dir, keyed by
// basename, for BuildIncludeAnalyzer.
func readIncludeFiles(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".inc") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		files[e.Name()] = string(data)
	}
	return files, nil
}

// collectOriginalSources walks dir recursively, bundling every .ss/.inc
// file (relative path -> bytes) for the original-source appendix.
func collectOriginalSources(dir string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".ss" && ext != ".inc" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[rel] = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func printUsage() {
	fmt.Printf(`%s

USAGE:
    sssu compile <input_dir> <output> [flags]
    sssu extract <Scene.pck> <out_dir>

COMMANDS:
    compile    Build Scene.pck (and Gameexe.dat) from a scene source directory
    extract    Invert a Scene.pck back into per-scene .dat files
    help       Show this help message
    version    Show version information

FLAGS (compile):
    --charset {cp932,utf8}   Accepted but not applied; sources are read as UTF-8
    --no-os                  Omit the original-source appendix
    --no-angou               Disable LZSS+XOR layers (header_size = 0)
    --tmp <dir>              Enable hash-based incremental cache
    --debug                  Retain tmp files
    --parallel               Compile scenes concurrently
    --max-workers N          Cap worker pool size
    --lzss-level 2..17       LZSS match-length ceiling
    --gei                    Write Gameexe.dat only

EXIT CODES:
    0 success, 1 runtime error, 2 usage error
`, versionString)
}
