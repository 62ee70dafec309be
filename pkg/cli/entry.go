package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/corrosion-lang/corrosion/internal/backend"
	"github.com/corrosion-lang/corrosion/internal/buildcache"
	"github.com/corrosion-lang/corrosion/internal/config"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/driver"
	"github.com/corrosion-lang/corrosion/internal/ir"
	"github.com/corrosion-lang/corrosion/internal/parser"
	"github.com/corrosion-lang/corrosion/internal/prettyprinter"
	"github.com/corrosion-lang/corrosion/internal/project"
	"github.com/corrosion-lang/corrosion/internal/server"
	"github.com/corrosion-lang/corrosion/internal/term"
	"github.com/corrosion-lang/corrosion/internal/utils"

	// Register the code generators with the backend registry.
	_ "github.com/corrosion-lang/corrosion/internal/backend/esgen"
	_ "github.com/corrosion-lang/corrosion/internal/backend/nativegen"
)

// Run is the CLI entry point. Each handleX function consumes the
// command it recognizes and returns true; the first match wins.
func Run() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if len(os.Args) == 2 {
		switch os.Args[1] {
		case "-v", "-version", "--version":
			fmt.Println("corrosion " + config.Version)
			return
		}
	}

	if handleHelp() {
		return
	}
	if handleCheck() {
		return
	}
	if handleBuild() {
		return
	}
	if handleFmt() {
		return
	}
	if handleServe() {
		return
	}
	if handleCache() {
		return
	}

	printUsage()
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: corrosion <command> [arguments]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  check [dir]                 Resolve and type-check a project")
	fmt.Fprintln(os.Stderr, "  build [dir] [-o <output>]   Compile the project to a bundle")
	fmt.Fprintln(os.Stderr, "        [--emit ir|es|native] [--no-cache] [--entry <module>]")
	fmt.Fprintln(os.Stderr, "  fmt [-w] <file>...          Reprint source files canonically")
	fmt.Fprintln(os.Stderr, "  serve [--addr <host:port>]  Start the gRPC compile server")
	fmt.Fprintln(os.Stderr, "  cache stats|prune           Inspect or trim the build cache")
	fmt.Fprintln(os.Stderr, "  --version                   Print the version")
}

func handleHelp() bool {
	if len(os.Args) < 2 {
		return false
	}
	switch os.Args[1] {
	case "help", "-h", "-help", "--help":
		printUsage()
		return true
	}
	return false
}

// loadProject resolves the project directory and config for a command
// that takes an optional [dir] argument.
func loadProject(dir string) (*project.Config, error) {
	if dir == "" {
		dir = "."
	}
	path, err := project.Find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return project.Default(dir), nil
	}
	return project.Load(path)
}

// collectProjectSources gathers all source files from the config's roots.
func collectProjectSources(cfg *project.Config) (map[string]string, error) {
	sources := make(map[string]string)
	for _, root := range cfg.SourceRoots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(cfg.Dir, root)
		}
		part, err := utils.CollectSources(root)
		if err != nil {
			return nil, err
		}
		for mod, src := range part {
			sources[mod] = src
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no %s files found under %s", config.SourceFileExt, cfg.Dir)
	}
	return sources, nil
}

func printDiagnostics(diags []*diagnostics.DiagnosticError) {
	for _, d := range diags {
		sev := d.Severity.String()
		switch sev {
		case "error":
			sev = term.Red(sev)
		case "warning":
			sev = term.Yellow(sev)
		}
		loc := fmt.Sprintf("%s:%d:%d", d.Module, d.Line, d.Column)
		fmt.Fprintf(os.Stderr, "%s %s: %s %s\n", term.Dim(loc), sev, d.Message, term.Dim("["+string(d.Code)+"]"))
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "- %s\n", err.Error())
	os.Exit(1)
}

func handleCheck() bool {
	if len(os.Args) < 2 || os.Args[1] != "check" {
		return false
	}
	dir := ""
	if len(os.Args) >= 3 && !strings.HasPrefix(os.Args[2], "-") {
		dir = os.Args[2]
	}
	cfg, err := loadProject(dir)
	if err != nil {
		fail(err)
	}
	sources, err := collectProjectSources(cfg)
	if err != nil {
		fail(err)
	}
	// A full build surfaces match-compilation diagnostics too; the
	// module itself is discarded.
	result := driver.Build(sources, driver.Options{Entry: cfg.Entry, MacroDepth: cfg.MacroDepth})
	printDiagnostics(result.Diagnostics)
	if diagnostics.HasErrors(result.Diagnostics) {
		os.Exit(1)
	}
	fmt.Printf("ok: %d modules\n", len(sources))
	return true
}

func handleBuild() bool {
	if len(os.Args) < 2 || os.Args[1] != "build" {
		return false
	}

	dir := ""
	output := ""
	entry := ""
	noCache := false
	var emit []string

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "-o" || arg == "--output":
			if i+1 >= len(args) {
				fail(fmt.Errorf("%s requires a value", arg))
			}
			i++
			output = args[i]
		case arg == "--entry":
			if i+1 >= len(args) {
				fail(fmt.Errorf("--entry requires a value"))
			}
			i++
			entry = args[i]
		case strings.HasPrefix(arg, "--emit="):
			emit = append(emit, strings.TrimPrefix(arg, "--emit="))
		case arg == "--emit":
			if i+1 >= len(args) {
				fail(fmt.Errorf("--emit requires a value"))
			}
			i++
			emit = append(emit, args[i])
		case arg == "--no-cache":
			noCache = true
		case strings.HasPrefix(arg, "-"):
			fail(fmt.Errorf("unknown flag %q", arg))
		default:
			dir = arg
		}
	}

	cfg, err := loadProject(dir)
	if err != nil {
		fail(err)
	}
	if entry != "" {
		cfg.Entry = entry
	}
	emit = append(emit, cfg.Emit...)

	sources, err := collectProjectSources(cfg)
	if err != nil {
		fail(err)
	}

	var cache *buildcache.Cache
	if cfg.CacheEnabled() && !noCache {
		cache, err = buildcache.Open(cachePath(cfg.Dir))
		if err != nil {
			fail(err)
		}
		defer cache.Close()
	}

	digest := buildcache.Digest(sources)
	var bundle []byte
	var module *ir.Module

	if cache != nil {
		if cached, buildID, ok, err := cache.Get(digest); err != nil {
			fail(err)
		} else if ok {
			bundle = cached
			fmt.Printf("cached: build %s\n", buildID)
		}
	}

	if bundle == nil {
		result := driver.Build(sources, driver.Options{Entry: cfg.Entry, MacroDepth: cfg.MacroDepth})
		printDiagnostics(result.Diagnostics)
		if result.Module == nil {
			os.Exit(1)
		}
		module = result.Module
		bundle, err = ir.EncodeBundle(module)
		if err != nil {
			fail(err)
		}
		if cache != nil {
			if err := cache.Put(digest, module.BuildID, bundle); err != nil {
				fail(err)
			}
		}
	}

	if output == "" {
		output = filepath.Join(cfg.Dir, cfg.Entry+config.BundleFileExt)
	}
	if err := os.WriteFile(output, bundle, 0644); err != nil {
		fail(err)
	}
	fmt.Printf("wrote %s\n", output)

	if len(emit) == 0 {
		return true
	}
	if module == nil {
		module, err = ir.DecodeBundle(bundle)
		if err != nil {
			fail(err)
		}
	}
	base := strings.TrimSuffix(output, config.BundleFileExt)
	for _, target := range dedupe(emit) {
		path, err := emitArtifact(module, target, base)
		if err != nil {
			fail(err)
		}
		fmt.Printf("wrote %s\n", path)
	}
	return true
}

func cachePath(projectDir string) string {
	return filepath.Join(projectDir, ".corrosion", "cache.db")
}

func dedupe(targets []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range targets {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func emitArtifact(m *ir.Module, target, base string) (string, error) {
	if target == "ir" {
		path := base + ".ir.txt"
		return path, os.WriteFile(path, []byte(m.Disassemble()), 0644)
	}
	em, ok := backend.Lookup(target)
	if !ok {
		return "", fmt.Errorf("unknown emit target %q (known: %s)", target, strings.Join(append(backend.Targets(), "ir"), ", "))
	}
	code, err := em.Emit(m)
	if err != nil {
		return "", err
	}
	path := base + em.FileExt()
	return path, os.WriteFile(path, code, 0644)
}

func handleFmt() bool {
	if len(os.Args) < 2 || os.Args[1] != "fmt" {
		return false
	}
	write := false
	var files []string
	for _, arg := range os.Args[2:] {
		if arg == "-w" || arg == "--write" {
			write = true
			continue
		}
		files = append(files, arg)
	}
	if len(files) == 0 {
		fail(fmt.Errorf("fmt requires at least one file"))
	}
	failed := false
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			fail(err)
		}
		mod, errs := parser.Parse(utils.ExtractModuleName(file), string(data))
		if len(errs) > 0 {
			printDiagnostics(errs)
			failed = true
			continue
		}
		printer := prettyprinter.NewCodePrinter()
		mod.Accept(printer)
		formatted := printer.String()
		if write {
			if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
				fail(err)
			}
		} else {
			fmt.Print(formatted)
		}
	}
	if failed {
		os.Exit(1)
	}
	return true
}

func handleServe() bool {
	if len(os.Args) < 2 || os.Args[1] != "serve" {
		return false
	}
	addr := "127.0.0.1:9090"
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--addr":
			if i+1 >= len(args) {
				fail(fmt.Errorf("--addr requires a value"))
			}
			i++
			addr = args[i]
		case strings.HasPrefix(args[i], "--addr="):
			addr = strings.TrimPrefix(args[i], "--addr=")
		default:
			fail(fmt.Errorf("unknown flag %q", args[i]))
		}
	}
	srv, err := server.New(addr)
	if err != nil {
		fail(err)
	}
	fmt.Printf("listening on %s\n", srv.Addr())
	if err := srv.Serve(); err != nil {
		fail(err)
	}
	return true
}

func handleCache() bool {
	if len(os.Args) < 2 || os.Args[1] != "cache" {
		return false
	}
	if len(os.Args) < 3 {
		fail(fmt.Errorf("cache requires a subcommand: stats or prune"))
	}

	cfg, err := loadProject("")
	if err != nil {
		fail(err)
	}
	cache, err := buildcache.Open(cachePath(cfg.Dir))
	if err != nil {
		fail(err)
	}
	defer cache.Close()

	switch os.Args[2] {
	case "stats":
		entries, bytes, err := cache.Stats()
		if err != nil {
			fail(err)
		}
		fmt.Printf("%d entries, %d bytes\n", entries, bytes)
	case "prune":
		maxAge := 30 * 24 * time.Hour
		if len(os.Args) >= 4 {
			maxAge, err = parseAge(os.Args[3])
			if err != nil {
				fail(err)
			}
		}
		dropped, err := cache.Prune(maxAge)
		if err != nil {
			fail(err)
		}
		fmt.Printf("pruned %d entries\n", dropped)
	default:
		fail(fmt.Errorf("unknown cache subcommand %q", os.Args[2]))
	}
	return true
}

// parseAge accepts Go durations ("72h") and day counts ("30d").
func parseAge(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid age %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
