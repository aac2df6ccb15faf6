package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/doctest"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/driver"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/interpreter"
)

var cliToolVersion = "dotlin " + strings.TrimPrefix(driver.RuntimeVersion, "v")

func main() {
	os.Exit(newCLI(os.Stdin, os.Stdout, os.Stderr).run(os.Args[1:]))
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{stdin: stdin, stdout: stdout, stderr: stderr}
}

func (c *cli) run(args []string) int {
	args, err := c.parseGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		c.printUsage()
		return 2
	}
	if len(args) == 0 {
		c.printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		c.printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(c.stdout, cliToolVersion)
		return 0
	case "run":
		return c.runScript(args[1:])
	case "check":
		return c.checkScripts(args[1:])
	case "test":
		return c.testScripts(args[1:])
	case "repl":
		return c.runREPL()
	default:
		if strings.HasSuffix(args[0], driver.SourceExtension) {
			return c.runScript(args)
		}
		fmt.Fprintf(c.stderr, "unknown command %q\n", args[0])
		c.printUsage()
		return 2
	}
}

// parseGlobalFlags strips --config and --log-level from the front of args.
// Anything after the first non-flag argument belongs to the command.
func (c *cli) parseGlobalFlags(args []string) ([]string, error) {
	for len(args) > 0 {
		name, value, hasValue := strings.Cut(args[0], "=")
		var target *string
		switch name {
		case "--config", "-c":
			target = &c.configPath
		case "--log-level":
			target = &c.logLevel
		default:
			return args, nil
		}
		if !hasValue {
			if len(args) < 2 {
				return nil, fmt.Errorf("%s requires a value", name)
			}
			value = args[1]
			args = args[1:]
		}
		*target = value
		args = args[1:]
	}
	return args, nil
}

func (c *cli) printUsage() {
	fmt.Fprintln(c.stderr, "Usage:")
	fmt.Fprintln(c.stderr, "  dotlin [--config dotlin.yml] [--log-level level] <command>")
	fmt.Fprintln(c.stderr, "")
	fmt.Fprintln(c.stderr, "Commands:")
	fmt.Fprintln(c.stderr, "  run <file.lin> [args...]   run a script, invoking main if declared")
	fmt.Fprintln(c.stderr, "  <file.lin> [args...]       shorthand for run")
	fmt.Fprintln(c.stderr, "  check <file.lin>...        type-check scripts without running them")
	fmt.Fprintln(c.stderr, "  test [file.md|dir]...      run Markdown script cases")
	fmt.Fprintln(c.stderr, "  repl                       start an interactive session")
	fmt.Fprintln(c.stderr, "  --version                  print the version")
}

// setup resolves the configuration for script (or the working directory)
// and builds the logger it asks for.
func (c *cli) setup(script string) (*driver.Config, *slog.Logger, error) {
	cfg, err := driver.ResolveConfig(c.configPath, script)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if c.logLevel != "" {
		if level, err = driver.ParseLogLevel(c.logLevel); err != nil {
			return nil, nil, fmt.Errorf("--log-level: %w", err)
		}
	}
	logger := slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path)
	}
	return cfg, logger, nil
}

func (c *cli) runScript(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.stderr, "dotlin run requires a source file")
		return 2
	}
	script, scriptArgs := args[0], args[1:]
	cfg, logger, err := c.setup(script)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	pipeline := driver.NewPipeline(
		driver.WithLogger(logger),
		driver.WithConfig(cfg),
		driver.WithOutput(c.stdout),
		driver.WithInput(c.stdin),
	)
	_, err = pipeline.Run(script, scriptArgs)
	return c.report(err)
}

// report prints err the way each failure kind deserves and picks the exit
// status.
func (c *cli) report(err error) int {
	if err == nil {
		return 0
	}
	var exit *interpreter.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	var rtErr *interpreter.Error
	if errors.As(err, &rtErr) {
		fmt.Fprintln(c.stderr, rtErr.FullMessage())
		return 1
	}
	fmt.Fprintln(c.stderr, err)
	return 1
}

func (c *cli) checkScripts(paths []string) int {
	if len(paths) == 0 {
		fmt.Fprintln(c.stderr, "dotlin check requires at least one source file")
		return 2
	}
	cfg, logger, err := c.setup(paths[0])
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	pipeline := driver.NewPipeline(driver.WithLogger(logger), driver.WithConfig(cfg))
	results, err := pipeline.CheckAll(context.Background(), paths)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	status := 0
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintln(c.stderr, res.Err)
			status = 1
			continue
		}
		for _, d := range res.Diagnostics {
			fmt.Fprintf(c.stdout, "%s:%s\n", res.Name, d)
			status = 1
		}
	}
	if status == 0 {
		fmt.Fprintf(c.stdout, "%d file(s) checked, no problems\n", len(results))
	}
	return status
}

func (c *cli) testScripts(paths []string) int {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	cfg, logger, err := c.setup(paths[0])
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	var cases []doctest.Case
	for _, path := range paths {
		found, err := loadCases(path)
		if err != nil {
			fmt.Fprintln(c.stderr, err)
			return 1
		}
		cases = append(cases, found...)
	}
	if len(cases) == 0 {
		fmt.Fprintln(c.stderr, "no test cases found")
		return 1
	}

	runner := doctest.NewRunner(doctest.WithLogger(logger), doctest.WithOptions(cfg.Options()))
	failed := 0
	for _, res := range runner.RunAll(cases) {
		if res.Passed() {
			fmt.Fprintf(c.stdout, "PASS %s\n", res.Case.ID())
			continue
		}
		failed++
		fmt.Fprintf(c.stdout, "FAIL %s (%s:%d)\n", res.Case.ID(), res.Case.File, res.Case.Line)
		for _, line := range strings.Split(strings.TrimRight(res.Problem, "\n"), "\n") {
			fmt.Fprintf(c.stdout, "    %s\n", line)
		}
	}
	fmt.Fprintf(c.stdout, "%d passed, %d failed\n", len(cases)-failed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func loadCases(path string) ([]doctest.Case, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return doctest.LoadDir(path)
	}
	if filepath.Ext(path) != ".md" {
		return nil, fmt.Errorf("%s: test cases live in .md files", path)
	}
	return doctest.LoadFile(path)
}
