package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/driver"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/interpreter"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/parser"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
)

const (
	replSource     = "<repl>"
	historyFile    = ".dotlin_history"
	primaryPrompt  = "dotlin> "
	continuePrompt = "   ...> "
)

func (c *cli) runREPL() int {
	cfg, logger, err := c.setup("")
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
	session := newREPLSession(pipeline.NewInterpreter(), c.stdout, c.stderr)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := historyPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(c.stdout, "%s (:vars lists globals, :quit leaves)\n", cliToolVersion)
	for {
		input, err := line.Prompt(session.prompt())
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			session.reset()
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(c.stdout)
			return 0
		case err != nil:
			fmt.Fprintln(c.stderr, err)
			return 1
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if code, done := session.feed(input); done {
			return code
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}

// replSession accumulates input lines until they form a complete program and
// runs each program against one interpreter, so definitions persist.
type replSession struct {
	interp *interpreter.Interpreter
	out    io.Writer
	errOut io.Writer
	buf    strings.Builder
}

func newREPLSession(interp *interpreter.Interpreter, out, errOut io.Writer) *replSession {
	return &replSession{interp: interp, out: out, errOut: errOut}
}

func (s *replSession) prompt() string {
	if s.buf.Len() == 0 {
		return primaryPrompt
	}
	return continuePrompt
}

func (s *replSession) reset() {
	s.buf.Reset()
}

// feed adds one line of input. It reports the exit status and true once the
// session should end.
func (s *replSession) feed(line string) (int, bool) {
	if s.buf.Len() == 0 {
		switch strings.TrimSpace(line) {
		case "":
			return 0, false
		case ":quit", ":q":
			return 0, true
		case ":vars":
			fmt.Fprintln(s.out, strings.Join(s.interp.GlobalEnvironment().Names(), " "))
			return 0, false
		}
	}
	s.buf.WriteString(line)
	s.buf.WriteString("\n")
	src := s.buf.String()
	if braceDepth(src) > 0 {
		return 0, false
	}
	prog, err := parser.Parse(src)
	if err != nil && parser.IsIncomplete(err) {
		return 0, false
	}
	s.reset()
	if err != nil {
		fmt.Fprintln(s.errOut, err)
		return 0, false
	}

	val, err := s.interp.Execute(prog, replSource)
	if err != nil {
		var exit *interpreter.ExitError
		if errors.As(err, &exit) {
			return exit.Code, true
		}
		var rtErr *interpreter.Error
		if errors.As(err, &rtErr) {
			fmt.Fprintln(s.errOut, rtErr.FullMessage())
		} else {
			fmt.Fprintln(s.errOut, err)
		}
		return 0, false
	}
	if echoes(prog) {
		fmt.Fprintln(s.out, runtime.ToDisplayString(val))
	}
	return 0, false
}

// braceDepth counts unclosed braces outside string literals.
func braceDepth(src string) int {
	depth := 0
	inString := false
	escaped := false
	for _, r := range src {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		case r == '{' && !inString:
			depth++
		case r == '}' && !inString:
			depth--
		}
	}
	return depth
}

// echoes reports whether the REPL should print the value of prog's last
// statement. Declarations, assignments and output calls stay quiet.
func echoes(prog *ast.Program) bool {
	if len(prog.Statements) == 0 {
		return false
	}
	switch stmt := prog.Statements[len(prog.Statements)-1].(type) {
	case *ast.AssignmentExpression:
		return false
	case *ast.FunctionCall:
		if id, ok := stmt.Callee.(*ast.Identifier); ok {
			switch id.Name {
			case "print", "println", "printf":
				return false
			}
		}
		return true
	case ast.Expression:
		return true
	}
	return false
}
