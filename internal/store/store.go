package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/planwright/planwright/internal/schema"
)

// Load reads and validates the state document at path. A missing file yields
// (nil, nil): the engine is simply uninitialized. Parse or schema failures are
// surfaced, never swallowed.
func Load(path string) (*schema.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state file %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()

	var d schema.Document
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	// Ensure there's nothing but whitespace after the object.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse state file %s: trailing JSON values", path)
		}
		return nil, fmt.Errorf("parse state file %s: trailing data: %w", path, err)
	}

	if errs := schema.Validate(d); len(errs) > 0 {
		return nil, fmt.Errorf("state file %s failed validation: %w", path, joinValidation(errs))
	}

	return &d, nil
}

// Save atomically persists the document to path, creating the parent
// directory if needed.
func Save(path string, d *schema.Document) error {
	if d == nil {
		return fmt.Errorf("save state: nil document")
	}

	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	b = append(b, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	return WriteFileAtomic(path, b, 0o644)
}

func joinValidation(errs []schema.ValidationError) error {
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return errors.Join(joined...)
}
