package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"ember/builtins"
	"ember/config"
	"ember/db"
	"ember/modules"
	"ember/parser"
	"ember/task"
	"ember/trace"
	"ember/vm"
)

const historyFile = ".ember_history"

// stringList collects a repeatable flag
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var importPaths stringList
	code := flag.String("e", "", "Run code given on the command line")
	flag.Var(&importPaths, "I", "Add a module search path (repeatable)")
	configPath := flag.String("config", "", "YAML configuration file")
	timeout := flag.Duration("timeout", 0, "Maximum execution time (negative disables)")

	// Trace flags
	traceEnabled := flag.Bool("trace", false, "Enable execution tracing")
	traceFilter := flag.String("trace-filter", "", "Trace filter pattern (glob, e.g., 'init*' or 'draw_*')")

	// Program file flags
	dumpPath := flag.String("dump", "", "Write the parsed program to this file instead of running it")
	loadPath := flag.String("load", "", "Run a serialized program")
	unparse := flag.Bool("unparse", false, "Print the parsed program as source instead of running it")

	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "I":
			cfg.ImportPaths = append(cfg.ImportPaths, importPaths...)
		case "timeout":
			cfg.MaxExecutionTime = config.Duration(*timeout)
		case "trace":
			cfg.Trace = *traceEnabled
		case "trace-filter":
			cfg.TraceFilter = splitFilters(*traceFilter)
			cfg.Trace = true
		}
	})

	prog, err := loadProgram(*code, *loadPath, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	switch {
	case prog != nil && *dumpPath != "":
		if err := db.SaveProgram(*dumpPath, prog); err != nil {
			log.Fatalf("Failed to write program: %v", err)
		}
		return
	case prog != nil && *unparse:
		for _, line := range parser.Unparse(prog) {
			fmt.Println(line)
		}
		return
	}

	opts := processOptions(cfg)
	if prog != nil {
		os.Exit(runProgram(opts, prog))
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		os.Exit(repl(opts))
	}

	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("Failed to read stdin: %v", err)
	}
	prog, err = parser.ParseString(string(src), "<stdin>")
	if err != nil {
		fmt.Fprintf(os.Stderr, "<stdin>: %v\n", err)
		os.Exit(1)
	}
	os.Exit(runProgram(opts, prog))
}

// loadProgram returns the program named by the flags or the first
// argument, or nil when there is none
func loadProgram(code, loadPath string, args []string) (*parser.Program, error) {
	switch {
	case code != "":
		return parser.ParseString(code, "<command line>")
	case loadPath != "":
		return db.LoadProgram(loadPath)
	case len(args) > 0:
		src, err := os.ReadFile(args[0])
		if err != nil {
			return nil, err
		}
		path, err := filepath.Abs(args[0])
		if err != nil {
			path = args[0]
		}
		prog, err := parser.ParseString(string(src), path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", args[0], err)
		}
		return prog, nil
	}
	return nil, nil
}

func processOptions(cfg *config.Config) vm.Options {
	reg := modules.NewRegistry(cfg.ImportPaths...)
	reg.RegisterNative(builtins.CryptoModuleName, builtins.NewCryptoModule())

	opts := vm.Options{
		Output:           os.Stdout,
		MaxExecutionTime: time.Duration(cfg.MaxExecutionTime),
		Modules:          reg,
		Natives:          builtins.NewRegistry(),
	}
	if cfg.Trace {
		opts.Tracer = trace.New(true, cfg.TraceFilter, os.Stderr)
		log.Printf("Tracing enabled (filters: %v)", cfg.TraceFilter)
	}
	return opts
}

// execute runs p until it stops, resuming it whenever it suspends
func execute(p *vm.Process) error {
	for {
		if err := p.Execute(); err != nil {
			return err
		}
		if p.State() != vm.SUSPENDED {
			return nil
		}
		p.Suspend(false)
	}
}

func runProgram(opts vm.Options, prog *parser.Program) int {
	p := vm.NewProcess(nil, opts)
	if err := p.Run(prog); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if err := execute(p); err != nil {
		fmt.Fprintln(os.Stderr, task.FormatTracebackString(p.Traceback(), err))
		return 1
	}
	return 0
}

func repl(opts vm.Options) int {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	p := vm.NewProcess(nil, opts)
	if wd, err := os.Getwd(); err == nil {
		p.SetWorkingPath(wd)
	}
	for {
		src, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		prog, err := parser.ParseString(src, "<repl>")
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			continue
		}
		if err := p.Run(prog); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			continue
		}
		if err := execute(p); err != nil {
			fmt.Fprintln(os.Stderr, task.FormatTracebackString(p.Traceback(), err))
		}
	}
}

// readInput reads lines until they parse or fail for a reason other
// than an unclosed block
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := ">> "
		if b.Len() > 0 {
			prompt = ".. "
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := parser.ParseString(src, "<repl>"); err == nil || !parser.IsIncomplete(err) {
			return src, true
		}
	}
}

func splitFilters(s string) []string {
	if s == "" {
		return nil
	}
	filters := strings.Split(s, ",")
	for i := range filters {
		filters[i] = strings.TrimSpace(filters[i])
	}
	return filters
}
