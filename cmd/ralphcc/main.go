// Command ralphcc preprocesses C source through the internal pkg/cpp
// preprocessor and, for the toy-language sibling pipeline, compiles a
// .src file down to a bytecode file header.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ralphcc-project/ralphcc/internal/config"
	"github.com/ralphcc-project/ralphcc/internal/diag"
	"github.com/ralphcc-project/ralphcc/pkg/preproc"
	"github.com/ralphcc-project/ralphcc/pkg/toylang"
)

var version = "0.1.0"

var (
	includePaths  []string
	systemPaths   []string
	defineFlags   []string
	undefineFlags []string
	preprocessOnly bool
	useExternalPP bool
	outputPath    string
	configPath    string
)

const (
	exitOK       = 0
	exitDiagErr  = 1
	exitUsageErr = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		if ue, ok := err.(usageError); ok {
			fmt.Fprintln(os.Stderr, ue.Error())
			return exitUsageErr
		}
		if exitCode == exitOK {
			exitCode = exitDiagErr
		}
		return exitCode
	}
	return exitCode
}

// exitCode lets RunE communicate a diagnostic-driven exit status back to
// run() without cobra's own error-vs-success binary split.
var exitCode = exitOK

type usageError struct{ msg string }

func (u usageError) Error() string { return u.msg }

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ralphcc <input>... ",
		Short:         "ralphcc preprocesses C sources and compiles toy-language sources",
		Version:       version,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return usageError{"ralphcc: at least one input file is required"}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := config.Load(configPath)
			if err != nil {
				fmt.Fprintln(errOut, err)
				exitCode = exitUsageErr
				return err
			}
			mergeProjectDefaults(proj)

			if len(args) > 1 {
				return runMany(cmd.Context(), args, out, errOut)
			}
			return runOne(cmd.Context(), args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().StringArrayVarP(&includePaths, "include", "I", nil, "add directory to include search path")
	rootCmd.Flags().StringArrayVar(&systemPaths, "isystem", nil, "add directory to system include search path")
	rootCmd.Flags().StringArrayVarP(&defineFlags, "define", "D", nil, "define macro (NAME or NAME=VALUE)")
	rootCmd.Flags().StringArrayVarP(&undefineFlags, "undefine", "U", nil, "undefine macro")
	rootCmd.Flags().BoolVarP(&preprocessOnly, "preprocess", "E", false, "preprocess only, write to stdout or -o")
	rootCmd.Flags().BoolVar(&useExternalPP, "external-cpp", false, "shell out to the system C preprocessor instead of the internal one")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (.bc for toy-language sources, preprocessed text for -E)")
	rootCmd.Flags().StringVar(&configPath, "config", "ralphcc.yaml", "project defaults file")

	return rootCmd
}

// mergeProjectDefaults layers ralphcc.yaml settings under explicit flags:
// a flag the user actually passed always wins.
func mergeProjectDefaults(proj *config.Project) {
	if len(includePaths) == 0 {
		includePaths = proj.IncludePaths
	}
	if len(systemPaths) == 0 {
		systemPaths = proj.SystemPaths
	}
	if len(defineFlags) == 0 {
		defineFlags = proj.Defines
	}
	if len(undefineFlags) == 0 {
		undefineFlags = proj.Undefines
	}
}

func buildPreprocessorOptions() *preproc.Options {
	opts := &preproc.Options{
		IncludePaths: includePaths,
		SystemPaths:  systemPaths,
		Defines:      make(map[string]string),
		Undefines:    undefineFlags,
		UseExternal:  useExternalPP,
	}
	for _, d := range defineFlags {
		if idx := strings.Index(d, "="); idx >= 0 {
			opts.Defines[d[:idx]] = d[idx+1:]
		} else {
			opts.Defines[d] = ""
		}
	}
	return opts
}

// runOne dispatches a single input file to the C preprocessing pipeline or
// the toy-language compile pipeline, based on its extension.
func runOne(ctx context.Context, filename string, out, errOut io.Writer) error {
	reporter := diag.New(errOut, levelFromEnv())

	if isToylangSource(filename) {
		return compileToylang(filename, reporter, errOut)
	}
	return preprocessC(filename, reporter, out, errOut)
}

// runMany preprocesses/compiles a batch of inputs concurrently: preprocessing
// is pure file I/O plus CPU-bound token work per session with disjoint
// arena/registry state, so sessions never share mutable data and can run on
// an errgroup without locking anything.
func runMany(ctx context.Context, files []string, out, errOut io.Writer) error {
	g, gctx := errgroup.WithContext(ctx)
	results := make([]error, len(files))
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			var buf strings.Builder
			results[i] = runOne(gctx, f, &buf, errOut)
			if outputPath == "" {
				io.WriteString(out, buf.String())
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := false
	for _, err := range results {
		if err != nil {
			failed = true
		}
	}
	if failed {
		exitCode = exitDiagErr
		return fmt.Errorf("one or more inputs failed")
	}
	return nil
}

func isToylangSource(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".src"
}

func preprocessC(filename string, reporter *diag.Reporter, out, errOut io.Writer) error {
	opts := buildPreprocessorOptions()
	opts.LineMarkers = preprocessOnly

	content, err := preproc.Preprocess(filename, opts)
	if err != nil {
		reporter.Errorf(diag.Loc{File: filename}, "%s", err)
		exitCode = exitDiagErr
		return err
	}

	if outputPath != "" {
		if werr := os.WriteFile(outputPath, []byte(content), 0644); werr != nil {
			reporter.Errorf(diag.Loc{File: outputPath}, "writing output: %s", werr)
			exitCode = exitDiagErr
			return werr
		}
		return nil
	}
	fmt.Fprint(out, content)
	return nil
}

// compileToylang runs the toy-language lexer/parser/builder over filename
// and, if parsing and building report no errors, writes the bytecode header
// to -o (defaulting to the input with its extension replaced by .bc).
func compileToylang(filename string, reporter *diag.Reporter, errOut io.Writer) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		reporter.Errorf(diag.Loc{File: filename}, "%s", err)
		exitCode = exitDiagErr
		return err
	}

	p := toylang.NewParser(toylang.New(string(src)))
	prog := p.ParseProgram()
	for _, perr := range p.Errors() {
		reporter.Errorf(diag.Loc{File: filename}, "%s", perr)
	}
	if reporter.HasErrors() {
		exitCode = exitDiagErr
		return fmt.Errorf("parsing %s failed", filename)
	}

	b := toylang.NewBuilder()
	if err := b.Build(prog); err != nil {
		reporter.Errorf(diag.Loc{File: filename}, "%s", err)
		exitCode = exitDiagErr
		return err
	}

	out := outputPath
	if out == "" {
		out = toylangOutputFilename(filename)
	}
	f, err := os.Create(out)
	if err != nil {
		reporter.Errorf(diag.Loc{File: out}, "%s", err)
		exitCode = exitDiagErr
		return err
	}
	defer f.Close()

	if err := b.WriteBytecodeHeader(f); err != nil {
		reporter.Errorf(diag.Loc{File: out}, "writing bytecode header: %s", err)
		exitCode = exitDiagErr
		return err
	}
	return nil
}

func toylangOutputFilename(filename string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + ".bc"
}

func levelFromEnv() diag.Level {
	switch strings.ToUpper(os.Getenv("RALPHCC_LOG_LEVEL")) {
	case "DEBUG":
		return diag.Debug
	case "ERROR":
		return diag.Error
	default:
		return diag.Warn
	}
}
