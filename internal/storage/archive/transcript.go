// internal/storage/archive/transcript.go
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/newthinker/relay/internal/core"
)

// Transcripts archives completion records as JSON documents, laid out
// as <vendor>/<yyyy>/<mm>/<dd>/<id>.json so day listings stay cheap on
// both localfs and S3.
type Transcripts struct {
	store Storage
}

// NewTranscripts creates a transcript archive over a storage backend.
func NewTranscripts(store Storage) *Transcripts {
	return &Transcripts{store: store}
}

// Path returns the archive path for a record.
func Path(rec core.Record) string {
	t := rec.CreatedAt.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s.json",
		rec.Vendor, t.Year(), int(t.Month()), t.Day(), rec.ID)
}

// Put archives a record and returns its path.
func (t *Transcripts) Put(ctx context.Context, rec core.Record) (string, error) {
	if !rec.IsValid() {
		return "", core.WrapError(core.ErrBadRequest,
			fmt.Errorf("record missing id, vendor or timestamp"))
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshaling transcript: %w", err)
	}

	path := Path(rec)
	if err := t.store.Write(ctx, path, data); err != nil {
		return "", fmt.Errorf("writing transcript: %w", err)
	}
	return path, nil
}

// Get reads a record back from the archive.
func (t *Transcripts) Get(ctx context.Context, path string) (*core.Record, error) {
	data, err := t.store.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	var rec core.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	return &rec, nil
}

// ListDay returns the transcript paths for a vendor on a given day.
func (t *Transcripts) ListDay(ctx context.Context, vendor core.Vendor, year, month, day int) ([]string, error) {
	prefix := fmt.Sprintf("%s/%04d/%02d/%02d", vendor, year, month, day)
	return t.store.List(ctx, prefix)
}
