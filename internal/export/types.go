// Package export turns a rendered template preview into a downloadable
// PDF via headless Chrome.
package export

import "errors"

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates the headless browser is not installed.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
