// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract text
// content from a specific MIME type.
//
// The Registry dispatches a raw document to the highest-priority normaliser
// for its format, sniffing the format when the caller did not declare one.
package normalisers
