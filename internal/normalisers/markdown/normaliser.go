// Package markdown normalises Markdown documents to plain text using goldmark.
package markdown

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/codex-cli/internal/normalisers/document"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts a markdown document to a normalised document.
// Block elements become paragraphs separated by blank lines so the chunker
// can cut on them; inline formatting, link targets and images are dropped.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source := bytes.ReplaceAll(raw.Content, []byte("\r\n"), []byte("\n"))
	root := n.md.Parser().Parse(text.NewReader(source))

	title, content := render(root, source)
	if title == "" {
		title = document.Title(raw)
	}

	return &driven.NormaliseResult{
		Document: document.New(raw, domain.FormatMarkdown, title, content),
	}, nil
}

// render walks the AST and returns the first level-1 heading and the plain text.
func render(root ast.Node, source []byte) (string, string) {
	var (
		title  string
		blocks []string
	)

	for block := root.FirstChild(); block != nil; block = block.NextSibling() {
		collectBlocks(block, source, &blocks)
		if h, ok := block.(*ast.Heading); ok && h.Level == 1 && title == "" {
			title = strings.TrimSpace(inlineText(h, source))
		}
	}

	return title, strings.Join(blocks, "\n\n")
}

// collectBlocks appends the text of leaf blocks under n.
func collectBlocks(n ast.Node, source []byte, blocks *[]string) {
	switch node := n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		*blocks = appendNonEmpty(*blocks, linesText(node, source))
	case *ast.HTMLBlock, *ast.ThematicBreak:
		// no readable text
	case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
		*blocks = appendNonEmpty(*blocks, inlineText(node, source))
	case *extast.TableRow, *extast.TableHeader:
		var cells []string
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, strings.TrimSpace(inlineText(c, source)))
		}
		*blocks = appendNonEmpty(*blocks, strings.Join(cells, " | "))
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			collectBlocks(c, source, blocks)
		}
	}
}

// inlineText concatenates the text of inline descendants of n.
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := child.(type) {
		case *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(c.Segment.Value(source))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.CodeSpan:
			for gc := c.FirstChild(); gc != nil; gc = gc.NextSibling() {
				if t, ok := gc.(*ast.Text); ok {
					b.Write(t.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			b.Write(c.Label(source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// linesText returns the raw lines of a code block.
func linesText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimRight(b.String(), "\n")
}

func appendNonEmpty(blocks []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return blocks
	}
	return append(blocks, s)
}
