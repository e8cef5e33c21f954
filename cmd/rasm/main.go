package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/raymyers/rasm/pkg/asm"
	"github.com/raymyers/rasm/pkg/compiler"
	"github.com/raymyers/rasm/pkg/config"
	"github.com/raymyers/rasm/pkg/parser"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var version = "0.1.0"

var (
	outputFile  string
	dialectName string
	defineFlags []string
	configFile  string
	dTokens     bool
	verbose     bool
)

// ErrCompile is returned after a compile error has been reported
var ErrCompile = errors.New("compilation failed")

func main() {
	atexit.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rasm [file]",
		Short: "rasm compiles AVR pseudo-assembly into assembler source",
		Long: `rasm translates a high-level AVR pseudo-assembly (register
expressions, structured loops and conditions, procedure calls with named
arguments) into plain AVR assembly for GNU as or the native assembler.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(errOut)
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			return compileFile(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write output to file instead of stdout")
	rootCmd.Flags().StringVar(&dialectName, "dialect", "", "Output dialect: auto, gnu or native (default from config, else auto)")
	rootCmd.Flags().StringArrayVarP(&defineFlags, "define", "D", nil, "Define constant (NAME or NAME=VALUE)")
	rootCmd.Flags().StringVar(&configFile, "config", "", "Config file (default "+config.DefaultFile+" if present)")
	rootCmd.Flags().BoolVar(&dTokens, "dtokens", false, "Dump classified tokens of every statement")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log compiler passes to stderr")

	return rootCmd
}

func setupLogging(w io.Writer) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// parseDefine splits NAME=VALUE; a bare NAME is defined as 1
func parseDefine(d string) (string, string) {
	if idx := strings.Index(d, "="); idx >= 0 {
		return d[:idx], d[idx+1:]
	}
	return d, "1"
}

// buildParser creates a parser from the config file and the flags
func buildParser(filename string, errOut io.Writer) (*parser.Parser, *config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(errOut, "rasm: %v\n", err)
		return nil, nil, err
	}
	if dialectName != "" {
		cfg.Dialect = dialectName
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(errOut, "rasm: %v\n", err)
		return nil, nil, err
	}
	dialect, err := cfg.DialectFor(filename)
	if err != nil {
		fmt.Fprintf(errOut, "rasm: %v\n", err)
		return nil, nil, err
	}

	p := parser.New(dialect)
	for _, name := range cfg.DefineNames() {
		p.Define(name, cfg.Defines[name])
	}
	for _, d := range defineFlags {
		p.Define(parseDefine(d))
	}
	slog.Debug("configured", "file", filename, "dialect", dialect, "defines", len(cfg.Defines)+len(defineFlags))
	return p, cfg, nil
}

func compileFile(filename string, out, errOut io.Writer) error {
	p, cfg, err := buildParser(filename, errOut)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "rasm: error reading %s: %v\n", filename, err)
		return err
	}

	if dTokens {
		return p.DumpTokens(out, string(content))
	}

	o, err := p.Parse(string(content))
	if err != nil {
		reportError(errOut, filename, err)
		return ErrCompile
	}
	return writeOutput(o, cfg.Indent, out, errOut)
}

// reportError prints a compile error as <file>:<line>: Error: <message>
func reportError(w io.Writer, filename string, err error) {
	var cerr *compiler.Error
	if errors.As(err, &cerr) && cerr.Line > 0 {
		fmt.Fprintf(w, "%s:%d: Error: %v\n", filename, cerr.Line, cerr)
		return
	}
	fmt.Fprintf(w, "%s: Error: %v\n", filename, err)
}

func printOutput(w io.Writer, o *asm.Output, indent string) {
	printer := asm.NewPrinter(w)
	printer.SetIndent(indent)
	printer.PrintOutput(o)
}

// writeOutput prints to stdout, or to a temporary file next to outputFile
// that is renamed into place once complete. The temporary file is removed
// if the process exits first.
func writeOutput(o *asm.Output, indent string, out, errOut io.Writer) error {
	if outputFile == "" {
		printOutput(out, o, indent)
		return nil
	}
	f, err := os.CreateTemp(filepath.Dir(outputFile), "."+filepath.Base(outputFile)+".*")
	if err != nil {
		fmt.Fprintf(errOut, "rasm: error creating %s: %v\n", outputFile, err)
		return err
	}
	tmp := f.Name()
	cleanup := atexit.Register(func() { os.Remove(tmp) })
	defer cleanup.Cancel()

	printOutput(f, o, indent)
	err = f.Chmod(0o644)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, outputFile)
	}
	if err != nil {
		os.Remove(tmp)
		fmt.Fprintf(errOut, "rasm: error writing %s: %v\n", outputFile, err)
		return err
	}
	return nil
}
