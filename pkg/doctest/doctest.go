// Package doctest extracts Dotlin script cases from Markdown and runs them.
//
// A case starts at a heading of the form "Test: <name>" and owns the fenced
// blocks that follow it up to the next such heading:
//
//	```dotlin   the program (required, once)
//	```output   expected standard output
//	```error    text the run error must contain
//	```input    standard input fed to readln/readLine
//	```args     command-line arguments, one per line
//
// A case needs a program and at least one of output or error.
package doctest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	mdast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const headingPrefix = "Test: "

// Fence names recognised inside a case.
const (
	FenceProgram = "dotlin"
	FenceOutput  = "output"
	FenceError   = "error"
	FenceInput   = "input"
	FenceArgs    = "args"
)

// Case is one script extracted from a Markdown file.
type Case struct {
	Name   string
	File   string
	Line   int
	Source string
	Output string
	Error  string
	Input  string
	Args   []string

	hasOutput bool
}

// ID names the case for test output, e.g. "basics.md/arithmetic".
func (c Case) ID() string {
	if c.File == "" {
		return c.Name
	}
	return filepath.Base(c.File) + "/" + c.Name
}

// Extract parses a Markdown document and returns its cases in order.
func Extract(file string, source []byte) ([]Case, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []Case
	var current *Case
	finish := func() error {
		if current == nil {
			return nil
		}
		if err := current.validate(); err != nil {
			return err
		}
		cases = append(cases, *current)
		return nil
	}

	err := mdast.Walk(doc, func(node mdast.Node, entering bool) (mdast.WalkStatus, error) {
		if !entering {
			return mdast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *mdast.Heading:
			title := plainText(n, source)
			if !strings.HasPrefix(title, headingPrefix) {
				return mdast.WalkSkipChildren, nil
			}
			if err := finish(); err != nil {
				return mdast.WalkStop, err
			}
			current = &Case{
				Name: strings.TrimSpace(strings.TrimPrefix(title, headingPrefix)),
				File: file,
				Line: lineOf(n, source),
			}
			return mdast.WalkSkipChildren, nil
		case *mdast.FencedCodeBlock:
			lang := string(n.Language(source))
			if current == nil {
				if isFence(lang) {
					return mdast.WalkStop, fmt.Errorf("%s:%d: %s fence outside of a test case", file, lineOf(n, source), lang)
				}
				return mdast.WalkContinue, nil
			}
			if err := current.add(lang, blockContent(n, source), lineOf(n, source)); err != nil {
				return mdast.WalkStop, err
			}
		}
		return mdast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *Case) add(lang, content string, line int) error {
	switch lang {
	case FenceProgram:
		if c.Source != "" {
			return fmt.Errorf("%s:%d: test %q has more than one program", c.File, line, c.Name)
		}
		c.Source = content
	case FenceOutput:
		c.Output = content
		c.hasOutput = true
	case FenceError:
		c.Error = strings.TrimSpace(content)
	case FenceInput:
		c.Input = content
	case FenceArgs:
		for _, arg := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
			if arg = strings.TrimSpace(arg); arg != "" {
				c.Args = append(c.Args, arg)
			}
		}
	case "":
	default:
		return fmt.Errorf("%s:%d: unknown fence %q in test %q", c.File, line, lang, c.Name)
	}
	return nil
}

func (c *Case) validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return fmt.Errorf("%s:%d: test %q has no %s fence", c.File, c.Line, c.Name, FenceProgram)
	}
	if !c.hasOutput && c.Error == "" {
		return fmt.Errorf("%s:%d: test %q expects neither output nor error", c.File, c.Line, c.Name)
	}
	return nil
}

func isFence(lang string) bool {
	switch lang {
	case FenceProgram, FenceOutput, FenceError, FenceInput, FenceArgs:
		return true
	}
	return false
}

// LoadFile extracts the cases of one Markdown file.
func LoadFile(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Extract(path, data)
}

// LoadDir extracts the cases of every *.md file in dir, sorted by file name.
func LoadDir(dir string) ([]Case, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	var cases []Case
	for _, path := range paths {
		found, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cases = append(cases, found...)
	}
	return cases, nil
}

func plainText(node mdast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = mdast.Walk(node, func(n mdast.Node, entering bool) (mdast.WalkStatus, error) {
		if t, ok := n.(*mdast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return mdast.WalkContinue, nil
	})
	return buf.String()
}

func blockContent(block *mdast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func lineOf(node mdast.Node, source []byte) int {
	lines := node.Lines()
	if lines.Len() == 0 {
		return 1
	}
	start := lines.At(0).Start
	if start > len(source) {
		start = len(source)
	}
	return bytes.Count(source[:start], []byte("\n")) + 1
}
