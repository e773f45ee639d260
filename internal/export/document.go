// Package export writes step documents as JSON and rendered scenes as SVG.
package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/stepviz/internal/step"
)

// WriteDocument encodes doc as two-space indented JSON.
func WriteDocument(w io.Writer, doc step.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// WriteSequence encodes a bare sequence, as `stepviz steps` prints it.
func WriteSequence(w io.Writer, seq step.Sequence) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(seq)
}

func WriteDocumentFile(path string, doc step.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteDocument(f, doc); err != nil {
		return err
	}
	return f.Close()
}

// ReadDocument decodes and validates a document.
func ReadDocument(r io.Reader) (step.Document, error) {
	var doc step.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return step.Document{}, err
	}
	if err := doc.Validate(); err != nil {
		return step.Document{}, err
	}
	return doc, nil
}
