package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/davidvkimball/cardbase/internal/cardservice"
	"github.com/davidvkimball/cardbase/internal/deletion"
	"github.com/davidvkimball/cardbase/internal/index"
	"github.com/davidvkimball/cardbase/internal/storage"
)

func testServer(t *testing.T) (*Server, *cardservice.Service, storage.Vault) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "cardbase-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := cardservice.NewService(store, db, cardservice.Config{
		ImageProperties:     []string{"image"},
		DescriptionProperty: "description",
		Deletion: deletion.Config{
			IndexFilename:           "index",
			DeleteParentFolder:      true,
			DeleteUniqueAttachments: true,
		},
	}, logger)

	return New(svc, store), svc, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_cards":
		result, err = srv.listCards(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "preview_note":
		result, err = srv.previewNote(ctx, req)
	case "search_cards":
		result, err = srv.searchCards(ctx, req)
	case "plan_deletion":
		result, err = srv.planDeletion(ctx, req)
	case "set_draft":
		result, err = srv.setDraft(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadNoteTool(t *testing.T) {
	srv, svc, _ := testServer(t)
	_, _ = svc.CreateNote(context.Background(), "test.md", []byte("# Test\nHello"))

	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "test.md"})
	if text := resultText(r); text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestPreviewNoteTool(t *testing.T) {
	srv, svc, _ := testServer(t)
	_, _ = svc.CreateNote(context.Background(), "p.md", []byte("# Heading\n**bold** body"))

	r := callTool(t, srv, "preview_note", map[string]interface{}{"path": "p.md"})
	if text := resultText(r); text != "bold body" {
		t.Errorf("preview = %q", text)
	}
}

func TestListCardsTool(t *testing.T) {
	srv, svc, _ := testServer(t)
	_, _ = svc.CreateNote(context.Background(), "a.md", []byte("a"))
	_, _ = svc.CreateNote(context.Background(), "b.md", []byte("b"))

	r := callTool(t, srv, "list_cards", map[string]interface{}{})
	var out struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, resultText(r))
	}
	if out.Total != 2 {
		t.Errorf("total = %d, want 2", out.Total)
	}
}

func TestPlanDeletionTool(t *testing.T) {
	srv, svc, store := testServer(t)
	_, _ = svc.CreateNote(context.Background(), "topic/index.md", []byte("---\nimage: photo.png\n---\nx"))
	_ = store.Write("topic/photo.png", []byte("img"))

	r := callTool(t, srv, "plan_deletion", map[string]interface{}{"paths": "topic/index.md"})
	text := resultText(r)
	if !strings.Contains(text, `"topic"`) || !strings.Contains(text, "topic/photo.png") {
		t.Errorf("plan = %s", text)
	}
}

func TestSetDraftTool(t *testing.T) {
	srv, svc, store := testServer(t)
	_, _ = svc.CreateNote(context.Background(), "a.md", []byte("one"))
	_, _ = svc.CreateNote(context.Background(), "b.md", []byte("two"))

	r := callTool(t, srv, "set_draft", map[string]interface{}{
		"paths": "a.md\nb.md",
		"draft": true,
	})
	if text := resultText(r); text != "updated 2 of 2, 0 errors" {
		t.Errorf("result = %q", text)
	}
	data, _ := store.Read("a.md")
	if !strings.Contains(string(data), "draft: true") {
		t.Errorf("draft flag missing:\n%s", data)
	}
}

func TestFrontmatterFormatResource(t *testing.T) {
	srv, _, _ := testServer(t)
	contents, err := srv.readFrontmatterFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || !strings.Contains(tc.Text, "draft: true") {
		t.Errorf("unexpected resource contents: %+v", contents[0])
	}
}

func TestUploadAttachment_DataURI(t *testing.T) {
	srv, _, store := testServer(t)

	// Smallest valid PNG header plus padding.
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	r, err := srv.uploadAttachment(context.Background(), uploadRequest(uri, "tiny.png"))
	if err != nil {
		t.Fatalf("uploadAttachment: %v", err)
	}
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	if !store.Exists("attachments/tiny.png") {
		t.Error("attachment not saved")
	}
	if !strings.Contains(resultText(r), "![](attachments/tiny.png)") {
		t.Errorf("result = %s", resultText(r))
	}
}

func TestUploadAttachment_RejectsMismatchedContent(t *testing.T) {
	srv, _, _ := testServer(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png at all"))
	r, err := srv.uploadAttachment(context.Background(), uploadRequest(uri, "fake.png"))
	if err != nil {
		t.Fatalf("uploadAttachment: %v", err)
	}
	if !r.IsError {
		t.Error("expected error for content/extension mismatch")
	}
}

func uploadRequest(url, filename string) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = "upload_attachment"
	req.Params.Arguments = map[string]interface{}{"url": url, "filename": filename}
	return req
}
