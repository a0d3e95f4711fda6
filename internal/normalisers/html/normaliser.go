// Package html normalises HTML pages to readable text.
package html

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/codex-cli/internal/normalisers/document"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML document to a normalised document.
// Block elements become paragraphs; script, style and head content is dropped.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	title, content, err := extract(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrParse, raw.URI, err)
	}
	if title == "" {
		title = document.Title(raw)
	}

	return &driven.NormaliseResult{
		Document: document.New(raw, domain.FormatHTML, title, content),
	}, nil
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Head:     true,
}

// block elements end the current paragraph.
var block = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Ul: true, atom.Ol: true, atom.Dd: true, atom.Dt: true,
}

// extract tokenises the page and returns its <title> and body text.
func extract(content []byte) (string, string, error) {
	z := html.NewTokenizer(bytes.NewReader(content))

	var (
		title      strings.Builder
		paragraphs []string
		current    strings.Builder
		skipDepth  int
		inTitle    bool
	)

	flush := func() {
		if p := strings.Join(strings.Fields(current.String()), " "); p != "" {
			paragraphs = append(paragraphs, p)
		}
		current.Reset()
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", "", err
			}
			flush()
			return strings.Join(strings.Fields(title.String()), " "), strings.Join(paragraphs, "\n\n"), nil

		case html.StartTagToken:
			tok := z.Token()
			if tok.DataAtom == atom.Title {
				inTitle = true
			}
			if skipped[tok.DataAtom] {
				skipDepth++
			}
			if block[tok.DataAtom] {
				flush()
			}

		case html.EndTagToken:
			tok := z.Token()
			if tok.DataAtom == atom.Title {
				inTitle = false
			}
			if skipped[tok.DataAtom] && skipDepth > 0 {
				skipDepth--
			}
			if block[tok.DataAtom] {
				flush()
			}

		case html.SelfClosingTagToken:
			if tok := z.Token(); block[tok.DataAtom] {
				flush()
			}

		case html.TextToken:
			text := string(z.Text())
			switch {
			case inTitle:
				title.WriteString(text)
			case skipDepth == 0:
				current.WriteString(text)
				current.WriteByte(' ')
			}
		}
	}
}
