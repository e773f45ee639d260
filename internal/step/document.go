package step

import (
	"time"
)

const FormatVersion = 1

// Producers recorded in Document.GeneratedBy.
const (
	GeneratedByGo          = "go"
	GeneratedByPrecomputed = "precomputed"
)

// Document wraps a sequence with the inputs and provenance that produced it.
type Document struct {
	FormatVersion int            `json:"formatVersion"`
	AlgorithmID   string         `json:"algorithmId"`
	Inputs        map[string]any `json:"inputs"`
	Steps         Sequence       `json:"steps"`
	GeneratedAt   string         `json:"generatedAt,omitempty"`
	GeneratedBy   string         `json:"generatedBy"`
}

// NewDocument snapshots inputs and stamps at (if non-zero) in RFC 3339.
func NewDocument(algorithmID string, inputs map[string]any, seq Sequence, generatedBy string, at time.Time) Document {
	in, _ := Snapshot(inputs).(map[string]any)
	if in == nil {
		in = map[string]any{}
	}
	d := Document{
		FormatVersion: FormatVersion,
		AlgorithmID:   algorithmID,
		Inputs:        in,
		Steps:         seq,
		GeneratedBy:   generatedBy,
	}
	if !at.IsZero() {
		d.GeneratedAt = at.UTC().Format(time.RFC3339)
	}
	return d
}

// Validate checks the wrapper fields and then the sequence itself.
func (d Document) Validate() error {
	if d.FormatVersion != FormatVersion {
		return invalid(-1, "", ErrFormatVersion, "got %d, want %d", d.FormatVersion, FormatVersion)
	}
	if !ValidAlgorithmID(d.AlgorithmID) {
		return invalid(-1, "", ErrInvalidID, "algorithm id %q is not URL-safe", d.AlgorithmID)
	}
	if err := Validate(d.Steps); err != nil {
		return err
	}
	return CheckFinite(d.Steps)
}
