// internal/storage/archive/transcript_test.go
package archive

import (
	"context"
	"testing"
	"time"

	"github.com/newthinker/relay/internal/core"
)

func testRecord() core.Record {
	return core.Record{
		ID:        "cmpl_1",
		Vendor:    core.VendorOpenAI,
		Model:     "gpt-3.5-turbo-instruct",
		Prompt:    "bar",
		Text:      "Bar Baz",
		Usage:     core.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestPath(t *testing.T) {
	got := Path(testRecord())
	want := "openai/2026/08/30/cmpl_1.json"
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestTranscripts_PutGet(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	tr := NewTranscripts(fs)
	ctx := context.Background()

	rec := testRecord()
	path, err := tr.Put(ctx, rec)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := tr.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Text != "Bar Baz" {
		t.Errorf("round trip lost text: %q", got.Text)
	}
	if got.Usage.TotalTokens != 3 {
		t.Errorf("round trip lost usage: %+v", got.Usage)
	}
}

func TestTranscripts_PutRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	tr := NewTranscripts(fs)

	_, err := tr.Put(context.Background(), core.Record{})
	if err == nil {
		t.Error("expected error for invalid record")
	}
}

func TestTranscripts_ListDay(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	tr := NewTranscripts(fs)
	ctx := context.Background()

	rec := testRecord()
	if _, err := tr.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.ID = "cmpl_2"
	if _, err := tr.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}

	paths, err := tr.ListDay(ctx, core.VendorOpenAI, 2026, 8, 30)
	if err != nil {
		t.Fatalf("ListDay: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("expected 2 transcripts, got %d", len(paths))
	}
}
