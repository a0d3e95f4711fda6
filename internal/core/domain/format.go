package domain

import (
	"path/filepath"
	"strings"
)

// Format identifies how a document's bytes are parsed.
type Format string

// Supported document formats.
const (
	// FormatUnknown means the format must be sniffed.
	FormatUnknown Format = ""

	// FormatText is plain UTF-8 text.
	FormatText Format = "txt"

	// FormatMarkdown is CommonMark/GFM markup.
	FormatMarkdown Format = "md"

	// FormatHTML is an HTML page.
	FormatHTML Format = "html"

	// FormatPDF is a PDF document.
	FormatPDF Format = "pdf"

	// FormatDOCX is an Office Open XML word document.
	FormatDOCX Format = "docx"
)

var formatMIMETypes = map[Format]string{
	FormatText:     "text/plain",
	FormatMarkdown: "text/markdown",
	FormatHTML:     "text/html",
	FormatPDF:      "application/pdf",
	FormatDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var extensionFormats = map[string]Format{
	".txt":      FormatText,
	".text":     FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
}

// IsValid returns true if the format is recognised.
func (f Format) IsValid() bool {
	_, ok := formatMIMETypes[f]
	return ok
}

// MIMEType returns the MIME type normalisers are registered under.
// Returns an empty string for unknown formats.
func (f Format) MIMEType() string {
	return formatMIMETypes[f]
}

// String returns the string representation.
func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// ParseFormat converts a user-supplied format name to a Format.
// Accepts names with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "auto" {
		return FormatUnknown, nil
	}
	if f, ok := extensionFormats["."+strings.TrimPrefix(s, ".")]; ok {
		return f, nil
	}
	return FormatUnknown, ErrUnsupportedType
}

// FormatFromPath returns the format implied by a file extension.
// Returns FormatUnknown when the extension is not supported.
func FormatFromPath(path string) Format {
	return extensionFormats[strings.ToLower(filepath.Ext(path))]
}

// SupportedExtensions returns the file extensions that can be ingested.
func SupportedExtensions() []string {
	return []string{".txt", ".text", ".md", ".markdown", ".html", ".htm", ".pdf", ".docx"}
}

// AllFormats returns all supported formats.
func AllFormats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatHTML, FormatPDF, FormatDOCX}
}
