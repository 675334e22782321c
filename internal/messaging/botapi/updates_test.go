package botapi

import (
	"context"
	"net/http"
	"testing"

	"renamer/internal/naming"
)

func TestPollParsesCommandsAndMedia(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("offset"); got != "5" {
			t.Errorf("offset = %q", got)
		}
		w.Write(okResult([]map[string]any{
			{
				"update_id": 10,
				"message": map[string]any{
					"message_id": 1,
					"from":       map[string]any{"id": 9},
					"chat":       map[string]any{"id": 9},
					"text":       "/SetTemplate@RenamerBot Show S{season}E{episode}",
				},
			},
			{
				"update_id": 11,
				"message": map[string]any{
					"message_id": 2,
					"from":       map[string]any{"id": 9},
					"chat":       map[string]any{"id": 9},
					"video": map[string]any{
						"file_id":   "vid-123",
						"file_name": "Show.E01.mkv",
						"file_size": 4096,
					},
				},
			},
			{
				"update_id": 12,
				"message": map[string]any{
					"message_id": 3,
					"from":       map[string]any{"id": 9},
					"chat":       map[string]any{"id": 9},
					"document": map[string]any{"file_id": "doc-456"},
				},
			},
		}))
	}))

	updates, err := client.Poll(context.Background(), 5, 0)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("updates = %d, want 3", len(updates))
	}

	cmd := updates[0]
	if cmd.Command != "/settemplate" {
		t.Errorf("command = %q", cmd.Command)
	}
	if cmd.Args != "Show S{season}E{episode}" {
		t.Errorf("args = %q", cmd.Args)
	}
	if cmd.ChatID != 9 || cmd.UserID != 9 {
		t.Errorf("routing ids = %d/%d", cmd.ChatID, cmd.UserID)
	}

	vid := updates[1]
	if vid.Incoming == nil {
		t.Fatal("video update carried no incoming file")
	}
	if vid.Incoming.Kind != naming.KindVideo {
		t.Errorf("kind = %v", vid.Incoming.Kind)
	}
	if vid.Incoming.FileName != "Show.E01.mkv" || vid.Incoming.FileSize != 4096 {
		t.Errorf("incoming = %+v", vid.Incoming)
	}
	if vid.Incoming.Ref.FileRef != "vid-123" || vid.Incoming.Ref.MessageID != 2 {
		t.Errorf("ref = %+v", vid.Incoming.Ref)
	}

	doc := updates[2]
	if doc.Incoming == nil {
		t.Fatal("document update carried no incoming file")
	}
	// Nameless documents fall back to the file id.
	if doc.Incoming.FileName != "doc-456" {
		t.Errorf("fallback name = %q", doc.Incoming.FileName)
	}
}
