package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/parser"
)

// SourceExtension is the only file extension LoadSource accepts.
const SourceExtension = ".lin"

var ErrUnsupportedSource = errors.New("unsupported source file")

// Source is a parsed script.
type Source struct {
	Path    string
	Text    string
	Program *ast.Program
}

// Name is the form used in error positions: the path relative to the
// working directory when that is shorter.
func (s *Source) Name() string {
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, s.Path); err == nil && len(rel) < len(s.Path) {
			return rel
		}
	}
	return s.Path
}

// LoadSource reads and parses a .lin file.
func LoadSource(path string) (*Source, error) {
	if filepath.Ext(path) != SourceExtension {
		return nil, fmt.Errorf("%w: %s (expected a %s file)", ErrUnsupportedSource, path, SourceExtension)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseSource(absPath, string(data))
}

// ParseSource parses text that came from path.
func ParseSource(path, text string) (*Source, error) {
	prog, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &Source{Path: path, Text: text, Program: prog}, nil
}
