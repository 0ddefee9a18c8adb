// Package parser turns JavaScript/TypeScript/JSX source into the mutable
// tree defined in pkg/ast. Parsing itself is delegated to tree-sitter; this
// package owns language detection and the CST conversion, including the
// comment attachment model the pruning engine depends on.
package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"excise/pkg/ast"
)

// Language represents a supported source language.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangUnknown    Language = "unknown"
)

// ErrUnsupportedLanguage is returned for files outside the JS/TS family.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrSyntax is returned when tree-sitter reports an error node anywhere in
// the parse. The file is skipped as a whole; the engine never sees a
// malformed tree.
var ErrSyntax = errors.New("syntax error")

// Parser wraps a tree-sitter parser instance. Not safe for concurrent use;
// create one per worker.
type Parser struct {
	parser *sitter.Parser
}

// New creates a new parser instance.
func New() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs":
		return LangJavaScript
	case ".jsx", ".tsx":
		// The TSX grammar is a superset that handles plain JSX too.
		return LangTSX
	case ".ts":
		return LangTypeScript
	default:
		return LangUnknown
	}
}

func grammar(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
}

// ParseFile reads and parses a source file.
func (p *Parser) ParseFile(path string) (*ast.File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	lang := DetectLanguage(path)
	if lang == LangUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
	}
	return p.Parse(source, lang, path)
}

// Parse parses source code with an explicit language.
func (p *Parser) Parse(source []byte, lang Language, path string) (*ast.File, error) {
	tsLang, err := grammar(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%s: %w", path, ErrSyntax)
	}

	c := &converter{src: source}
	return &ast.File{
		Path:   path,
		Source: source,
		Root:   c.convert(root),
	}, nil
}
