// Package connectors provides implementations of the Connector interface
// for document sources. The filesystem connector walks a directory of
// personal documents and watches it for changes.
package connectors
