package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"excise/internal/cache"
	"excise/internal/engine"
	"excise/internal/fileproc"
	"excise/internal/output"
	"excise/internal/printer"
	"excise/internal/progress"
	"excise/internal/scanner"
	"excise/pkg/config"
	"excise/pkg/models"
	"excise/pkg/parser"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func main() {
	app := &cli.App{
		Name:     "excise",
		Usage:    "Annotation-driven source pruning for restricted builds",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `Excise removes comment-annotated code paths from JavaScript and
TypeScript sources to produce restricted build variants. Code marked
with the annotation token is stripped, references to removed symbols
are rewritten, and protected framework imports are always retained.

Supports: JavaScript, TypeScript, JSX, TSX`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"EXCISE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write report to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable caching",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "Enable pprof profiling and write to specified prefix (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
			},
		},
		Before: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				cpuFile, err := os.Create(pprofPrefix + ".cpu.pprof")
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(cpuFile); err != nil {
					cpuFile.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				c.App.Metadata["pprofCPU"] = cpuFile
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				pprof.StopCPUProfile()
				if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
					cpuFile.Close()
					color.Green("CPU profile written to %s.cpu.pprof", pprofPrefix)
				}

				memFile, err := os.Create(pprofPrefix + ".mem.pprof")
				if err != nil {
					return fmt.Errorf("failed to create memory profile: %w", err)
				}
				defer memFile.Close()

				runtime.GC()
				if err := pprof.WriteHeapProfile(memFile); err != nil {
					return fmt.Errorf("failed to write memory profile: %w", err)
				}
				color.Green("Memory profile written to %s.mem.pprof", pprofPrefix)
			}
			return nil
		},
		Commands: []*cli.Command{
			pruneCmd(),
			checkCmd(),
			initCmd(),
			cleanCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) *config.Config {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			color.Yellow("Config %s: %v (using defaults)", path, err)
			return config.DefaultConfig()
		}
		return cfg
	}
	return config.LoadOrDefault()
}

// collectFiles expands positional paths into the set of prunable source
// files, applying exclusion rules to directories but not to explicit files.
func collectFiles(cfg *config.Config, paths []string) ([]string, error) {
	scan := scanner.New(cfg)

	var files []string
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", path, err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}
		if info.IsDir() {
			found, err := scan.ScanDir(absPath)
			if err != nil {
				return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
			}
			files = append(files, found...)
			continue
		}
		ok, err := scan.ScanFile(absPath)
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, absPath)
		}
	}
	return files, nil
}

func pruneCmd() *cli.Command {
	return &cli.Command{
		Name:      "prune",
		Aliases:   []string{"strip"},
		Usage:     "Remove annotated code paths from source files",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Value:   "restricted",
				Usage:   "Build mode: restricted (prune) or internal (pass through)",
				EnvVars: []string{"EXCISE_MODE"},
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write transformed sources under this directory",
			},
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Rewrite pruned files in place",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would be removed without writing anything",
			},
			&cli.StringFlag{
				Name:  "marker",
				Usage: "Override the annotation marker token",
			},
		},
		Action: runPruneCmd,
	}
}

func runPruneCmd(c *cli.Context) error {
	mode := strings.ToLower(c.String("mode"))
	if mode != "restricted" && mode != "internal" {
		return fmt.Errorf("invalid mode %q: must be restricted or internal", c.String("mode"))
	}
	outDir := c.String("out")
	inPlace := c.Bool("write")
	dryRun := c.Bool("dry-run")
	if inPlace && outDir != "" {
		return fmt.Errorf("--write and --out are mutually exclusive")
	}

	cfg := loadConfig(c)
	if m := c.String("marker"); m != "" {
		cfg.Annotation.Marker = m
	}

	analysis, results, err := runPrune(c, cfg, mode)
	if err != nil {
		return err
	}
	if analysis == nil {
		return nil
	}

	if !dryRun {
		if err := writeResults(results, outDir, inPlace); err != nil {
			return err
		}
	}

	return report(c, analysis, cfg)
}

// runPrune scans, parses and prunes all requested files in parallel. The
// returned results carry the transformed source for every successful file.
func runPrune(c *cli.Context, cfg *config.Config, mode string) (*models.PruneAnalysis, []models.FileResult, error) {
	files, err := collectFiles(cfg, getPaths(c))
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil, nil, nil
	}

	restricted := mode == "restricted"
	opts := engine.Options{
		Marker:      cfg.Annotation.Marker,
		ModeFlag:    cfg.Annotation.ModeFlag,
		StyleTables: cfg.Annotation.StyleTables,
	}

	store, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled && !c.Bool("no-cache"))
	if err != nil {
		color.Yellow("Cache disabled: %v", err)
		store, _ = cache.New("", 0, false)
	}

	bar := progress.New("Pruning sources...", len(files))
	results, errs := fileproc.MapFilesWithProgress(files, func(psr *parser.Parser, path string) (models.FileResult, error) {
		return pruneFile(psr, store, path, restricted, opts)
	}, bar.Tick)
	bar.Finish()

	failed := 0
	if errs != nil {
		failed = len(errs.Errors)
		for _, e := range errs.Errors {
			color.Red("  %v", e)
		}
	}

	return models.NewPruneAnalysis(mode, results, failed), results, nil
}

// cachedResult is the serialized form of a pruned file stored in the cache.
type cachedResult struct {
	Removed []string      `json:"removed,omitempty"`
	Edits   []models.Edit `json:"edits,omitempty"`
	Output  []byte        `json:"output"`
}

func pruneFile(psr *parser.Parser, store *cache.Cache, path string, restricted bool, opts engine.Options) (models.FileResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return models.FileResult{}, err
	}

	hash := cache.HashBytes(src)
	key := cache.Key(path, opts.Marker, modeName(restricted))
	if data, ok := store.Get(key, hash); ok {
		var cr cachedResult
		if json.Unmarshal(data, &cr) == nil {
			return models.FileResult{Path: path, Removed: cr.Removed, Edits: cr.Edits, Output: cr.Output}, nil
		}
	}

	lang := parser.DetectLanguage(path)
	file, err := psr.Parse(src, lang, path)
	if err != nil {
		return models.FileResult{}, err
	}

	res, err := engine.Prune(file, restricted, opts)
	if err != nil {
		return models.FileResult{}, err
	}

	out := src
	if res.Pruned() {
		out, err = printer.Apply(src, res.Edits)
		if err != nil {
			return models.FileResult{}, err
		}
	}

	result := models.FileResult{Path: path, Removed: res.Removed, Edits: res.Edits, Output: out}
	if data, err := json.Marshal(cachedResult{Removed: res.Removed, Edits: res.Edits, Output: out}); err == nil {
		store.Set(key, hash, data) //nolint:errcheck // cache failures are non-fatal
	}
	return result, nil
}

func modeName(restricted bool) string {
	if restricted {
		return "restricted"
	}
	return "internal"
}

// writeResults persists transformed sources. In-place mode only touches
// files that changed; --out mirrors every input under the target directory.
func writeResults(results []models.FileResult, outDir string, inPlace bool) error {
	if !inPlace && outDir == "" {
		return nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	for _, r := range results {
		if inPlace {
			if !r.Pruned() {
				continue
			}
			if err := os.WriteFile(r.Path, r.Output, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", r.Path, err)
			}
			continue
		}

		rel, err := filepath.Rel(cwd, r.Path)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(r.Path)
		}
		dest := filepath.Join(outDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, r.Output, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
	}
	return nil
}

func report(c *cli.Context, analysis *models.PruneAnalysis, cfg *config.Config) error {
	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var rows [][]string
	for _, f := range analysis.Files {
		if !f.Pruned() && !c.Bool("verbose") {
			continue
		}
		removed := strings.Join(f.Removed, ", ")
		if removed == "" {
			removed = "-"
		}
		count := fmt.Sprintf("%d", len(f.Removed))
		if len(f.Removed) > 0 {
			count = color.YellowString(count)
		}
		rows = append(rows, []string{f.Path, count, removed})
	}

	table := output.NewTable(
		fmt.Sprintf("Pruned Code (%s mode)", analysis.Mode),
		[]string{"File", "Symbols", "Removed"},
		rows,
		[]string{
			fmt.Sprintf("Files: %d", analysis.Summary.TotalFiles),
			fmt.Sprintf("Pruned: %d", analysis.Summary.PrunedFiles),
			fmt.Sprintf("Symbols: %d", analysis.Summary.RemovedSymbols),
		},
		analysis,
	)

	if err := formatter.Output(table); err != nil {
		return err
	}

	if analysis.Summary.FailedFiles > 0 {
		return fmt.Errorf("%d files failed to process", analysis.Summary.FailedFiles)
	}
	return nil
}

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report what a restricted build would remove, without writing",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "marker",
				Usage: "Override the annotation marker token",
			},
		},
		Action: runCheckCmd,
	}
}

func runCheckCmd(c *cli.Context) error {
	cfg := loadConfig(c)
	if m := c.String("marker"); m != "" {
		cfg.Annotation.Marker = m
	}

	analysis, _, err := runPrune(c, cfg, "restricted")
	if err != nil {
		return err
	}
	if analysis == nil {
		return nil
	}
	return report(c, analysis, cfg)
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default excise.toml to the current directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: runInitCmd,
	}
}

const defaultConfigTOML = `[annotation]
# Comment token that marks code for removal in restricted builds.
marker = "@internal-only"
# Identifier guarding conditional renders (FLAG && <X/>).
mode_flag = "__INTERNAL__"
# Table-constructor calls whose entries can be annotated individually.
style_tables = ["StyleSheet.create"]

[exclude]
patterns = ["*.test.js", "*.test.ts", "*.test.tsx", "*.spec.js", "*.spec.ts", "*.min.js"]
dirs = ["node_modules", ".git", ".excise", "dist", "build", "vendor"]
gitignore = true

[cache]
enabled = true
dir = ".excise/cache"
ttl = 24

[output]
format = "text"
color = true
`

func runInitCmd(c *cli.Context) error {
	const path = "excise.toml"
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTOML), 0o644); err != nil {
		return err
	}
	color.Green("Wrote %s", path)
	return nil
}

func cleanCmd() *cli.Command {
	return &cli.Command{
		Name:   "clean",
		Usage:  "Remove all cached pruning results",
		Action: runCleanCmd,
	}
}

func runCleanCmd(c *cli.Context) error {
	cfg := loadConfig(c)
	store, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil && !os.IsNotExist(err) {
		return err
	}
	color.Green("Cache cleared")
	return nil
}
