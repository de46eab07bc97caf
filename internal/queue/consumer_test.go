package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandleMessageAppendsLine(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	for _, ev := range []SubmissionConfirmedEvent{
		{ConfirmationID: "L-1", Kind: "listing", FlowID: "f1", UserID: "7", ConfirmedAt: "2026-01-02T03:04:05Z"},
		{ConfirmationID: "R-2", Kind: "review", FlowID: "f2", UserID: "8", Anonymous: true, ConfirmedAt: "2026-01-02T03:04:06Z"},
	} {
		body, _ := json.Marshal(ev)
		if err := HandleMessage(dir, body); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	bs, err := os.ReadFile(filepath.Join(dir, "submissions.log"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "confirmation_id=L-1") || !strings.Contains(lines[0], "user=7") {
		t.Fatalf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "user=anonymous") {
		t.Fatalf("anonymous user leaked: %q", lines[1])
	}
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	if err := HandleMessage(dir, []byte("{")); err == nil {
		t.Fatal("garbage accepted")
	}
	if err := HandleMessage(dir, []byte(`{"kind":"listing"}`)); err == nil {
		t.Fatal("event without id accepted")
	}
}
