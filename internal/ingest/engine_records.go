package ingest

import (
	"context"
	"fmt"
)

// IngestRecords classifies in-memory records whose File nodes are already in
// the store. Image records go after the rest so cover images can find their
// owners. It stops at the first error; a partially loaded graph must be
// discarded by the caller.
func (e *Engine) IngestRecords(ctx context.Context, records []Record) error {
	ordered := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Kind != RecordImage {
			ordered = append(ordered, rec)
		}
	}
	for _, rec := range records {
		if rec.Kind == RecordImage {
			ordered = append(ordered, rec)
		}
	}
	for i, rec := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.classifier.Classify(ctx, rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
