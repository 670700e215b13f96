package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/davidvkimball/cardbase/internal/cardservice"
	"github.com/davidvkimball/cardbase/internal/deletion"
	"github.com/davidvkimball/cardbase/internal/index"
	"github.com/davidvkimball/cardbase/internal/models"
	"github.com/davidvkimball/cardbase/internal/storage"
)

// testEnv sets up a temp vault, SQLite DB, service, and router for testing.
// An empty authToken means disabled mode; non-empty means token mode.
func testEnv(t *testing.T, authToken string) (*cardservice.Service, http.Handler) {
	t.Helper()
	svc, router, _ := testEnvWithVault(t, authToken != "", authToken)
	return svc, router
}

func testEnvWithVault(t *testing.T, authEnabled bool, authToken string) (*cardservice.Service, http.Handler, string) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "cardbase-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := cardservice.NewService(store, db, cardservice.Config{
		ImageProperties:     []string{"image", "cover"},
		DescriptionProperty: "description",
		Deletion: deletion.Config{
			IndexFilename:           "index",
			DeleteParentFolder:      true,
			DeleteUniqueAttachments: true,
		},
	}, logger)

	router := NewRouter(svc, authEnabled, authToken, nil, vaultDir)
	return svc, router, vaultDir
}

func createNote(t *testing.T, router http.Handler, path, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"path": path, "content": content})
	req := httptest.NewRequest(http.MethodPost, "/cards", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetCard(t *testing.T) {
	_, router := testEnv(t, "")

	w := createNote(t, router, "hello.md", "# Hello\nWorld")
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/cards/hello.md", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var card models.Card
	_ = json.Unmarshal(w.Body.Bytes(), &card)
	if card.Path != "hello.md" {
		t.Errorf("path = %q", card.Path)
	}
	if card.Title != "Hello" {
		t.Errorf("title = %q, want Hello", card.Title)
	}
	if card.Preview != "World" {
		t.Errorf("preview = %q, want World", card.Preview)
	}
}

func TestCreateDuplicate(t *testing.T) {
	_, router := testEnv(t, "")

	if w := createNote(t, router, "dup.md", "a"); w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	if w := createNote(t, router, "dup.md", "a"); w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")

	w := createNote(t, router, "lock.md", "v1")
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	var created models.Card
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	// Update with correct checksum.
	updateBody, _ := json.Marshal(map[string]string{"content": "v2"})
	req := httptest.NewRequest(http.MethodPut, "/cards/lock.md", bytes.NewReader(updateBody))
	req.Header.Set("If-Match", created.Checksum)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}

	// Same checksum is stale now.
	req = httptest.NewRequest(http.MethodPut, "/cards/lock.md", bytes.NewReader(updateBody))
	req.Header.Set("If-Match", created.Checksum)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale checksum = %d, want 409", w.Code)
	}
}

func TestUpdateWithoutIfMatch(t *testing.T) {
	_, router := testEnv(t, "")

	createNote(t, router, "nolock.md", "v1")

	updateBody, _ := json.Marshal(map[string]string{"content": "v2"})
	req := httptest.NewRequest(http.MethodPut, "/cards/nolock.md", bytes.NewReader(updateBody))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("update without If-Match = %d, want 200", w.Code)
	}
}

func TestUpdateCard_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(map[string]string{"content": "x"})
	req := httptest.NewRequest(http.MethodPut, "/cards/ghost.md", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestDeleteCard(t *testing.T) {
	_, router := testEnv(t, "")

	createNote(t, router, "bye.md", "gone")

	req := httptest.NewRequest(http.MethodDelete, "/cards/bye.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/cards/bye.md", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestListCards_Pagination(t *testing.T) {
	_, router := testEnv(t, "")

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		createNote(t, router, name, "# "+name)
	}

	req := httptest.NewRequest(http.MethodGet, "/cards?limit=2&offset=0", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp CardListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Cards) != 2 {
		t.Errorf("len(cards) = %d, want 2", len(resp.Cards))
	}
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
}

func TestListCards_TagFilter(t *testing.T) {
	_, router := testEnv(t, "")

	createNote(t, router, "tagged.md", "---\ntags: [keep]\n---\nbody")
	createNote(t, router, "plain.md", "body")

	req := httptest.NewRequest(http.MethodGet, "/cards?tag=keep", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp CardListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Fatalf("total = %d, want 1", resp.Total)
	}
	if resp.Cards[0].Path != "tagged.md" {
		t.Errorf("path = %q", resp.Cards[0].Path)
	}
}

func TestListCards_InvalidDraftFilter(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/cards?draft=maybe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid draft filter = %d, want 400", w.Code)
	}
}

func TestGetCard_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/cards/nope.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing card = %d, want 404", w.Code)
	}
}

// Bulk editing tests.

func TestBulkTags(t *testing.T) {
	_, router := testEnv(t, "")

	createNote(t, router, "a.md", "one")
	createNote(t, router, "b.md", "two")

	body, _ := json.Marshal(BulkTagsRequest{Paths: []string{"a.md", "b.md"}, Add: []string{"shared"}})
	req := httptest.NewRequest(http.MethodPost, "/bulk/tags", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("bulk tags = %d, body = %s", w.Code, w.Body.String())
	}
	var outcome BulkOutcomeResponse
	_ = json.Unmarshal(w.Body.Bytes(), &outcome)
	if outcome.Updated != 2 || outcome.Failed != 0 {
		t.Errorf("outcome = %+v", outcome)
	}

	// The tag should now show up in listings.
	req = httptest.NewRequest(http.MethodGet, "/cards?tag=shared", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp CardListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("tagged total = %d, want 2", resp.Total)
	}
}

func TestBulkTags_NothingToDo(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(BulkTagsRequest{Paths: []string{"a.md"}})
	req := httptest.NewRequest(http.MethodPost, "/bulk/tags", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty add/remove = %d, want 400", w.Code)
	}
}

func TestBulkDraft(t *testing.T) {
	_, router := testEnv(t, "")

	createNote(t, router, "d.md", "draft me")

	body, _ := json.Marshal(BulkDraftRequest{Paths: []string{"d.md"}, Draft: true})
	req := httptest.NewRequest(http.MethodPost, "/bulk/draft", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("bulk draft = %d", w.Code)
	}

	// Draft filter should now find it.
	req = httptest.NewRequest(http.MethodGet, "/cards?draft=true", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp CardListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("draft total = %d, want 1", resp.Total)
	}
}

func TestBulkProperty_SetAndRemove(t *testing.T) {
	_, router, vaultDir := testEnvWithVault(t, false, "")

	createNote(t, router, "p.md", "body")
	_ = os.WriteFile(filepath.Join(vaultDir, "img.png"), []byte("img"), 0o644)

	body, _ := json.Marshal(BulkPropertyRequest{Paths: []string{"p.md"}, Key: "cover", Value: "img.png"})
	req := httptest.NewRequest(http.MethodPost, "/bulk/property", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("set property = %d", w.Code)
	}

	// Cover property should surface as the card image.
	req = httptest.NewRequest(http.MethodGet, "/cards/p.md", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var card models.Card
	_ = json.Unmarshal(w.Body.Bytes(), &card)
	if card.Image != "img.png" {
		t.Errorf("image = %q, want img.png", card.Image)
	}

	body, _ = json.Marshal(BulkPropertyRequest{Paths: []string{"p.md"}, Key: "cover", Remove: true})
	req = httptest.NewRequest(http.MethodPost, "/bulk/property", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("remove property = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/cards/p.md", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	card = models.Card{}
	_ = json.Unmarshal(w.Body.Bytes(), &card)
	if card.Image != "" {
		t.Errorf("image after remove = %q, want empty", card.Image)
	}
}

// Deletion endpoint tests.

func TestDeletionPlanAndExecute(t *testing.T) {
	_, router, vaultDir := testEnvWithVault(t, false, "")

	createNote(t, router, "topic/index.md", "---\nimage: photo.png\n---\nbody")
	createNote(t, router, "topic/extra.md", "more")
	_ = os.WriteFile(filepath.Join(vaultDir, "topic", "photo.png"), []byte("img"), 0o644)

	body, _ := json.Marshal(DeletionRequest{Paths: []string{"topic/index.md"}})
	req := httptest.NewRequest(http.MethodPost, "/deletion/plan", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("plan = %d, body = %s", w.Code, w.Body.String())
	}
	var plan deletion.Plan
	_ = json.Unmarshal(w.Body.Bytes(), &plan)
	if len(plan.Folders) != 1 || plan.Folders[0] != "topic" {
		t.Fatalf("folders = %v, want [topic]", plan.Folders)
	}
	if len(plan.Files) != 2 {
		t.Errorf("files = %v, want both notes", plan.Files)
	}
	if len(plan.Attachments) != 1 || plan.Attachments[0] != "topic/photo.png" {
		t.Errorf("attachments = %v", plan.Attachments)
	}

	execBody, _ := json.Marshal(DeletionExecuteRequest{Plan: plan})
	req = httptest.NewRequest(http.MethodPost, "/deletion/execute", bytes.NewReader(execBody))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("execute = %d, body = %s", w.Code, w.Body.String())
	}
	var outcome deletion.Outcome
	_ = json.Unmarshal(w.Body.Bytes(), &outcome)
	if outcome.Failed != 0 {
		t.Errorf("outcome = %+v", outcome)
	}

	if _, err := os.Stat(filepath.Join(vaultDir, "topic")); !os.IsNotExist(err) {
		t.Error("topic folder should be gone")
	}

	// Cards should be gone from the index too.
	req = httptest.NewRequest(http.MethodGet, "/cards/topic/index.md", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted card still served: %d", w.Code)
	}
}

func TestExecuteDeletion_EmptyPlan(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(DeletionExecuteRequest{})
	req := httptest.NewRequest(http.MethodPost, "/deletion/execute", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty plan = %d, want 400", w.Code)
	}
}

// Search and attachment usage.

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	createNote(t, router, "find.md", "uniquetoken here")

	req := httptest.NewRequest(http.MethodGet, "/search?q=uniquetoken", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	results := resp["results"].([]any)
	if len(results) != 1 {
		t.Errorf("search results = %d, want 1", len(results))
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestAttachmentUsageEndpoint(t *testing.T) {
	_, router, vaultDir := testEnvWithVault(t, false, "")

	_ = os.WriteFile(filepath.Join(vaultDir, "shared.png"), []byte("img"), 0o644)
	createNote(t, router, "user.md", "![[shared.png]]")

	req := httptest.NewRequest(http.MethodGet, "/attachments/usage?path=shared.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("usage = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	sources := resp["sources"].([]any)
	if len(sources) != 1 || sources[0] != "user.md" {
		t.Errorf("sources = %v", sources)
	}
}

// Auth middleware tests.

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	body, _ := json.Marshal(map[string]string{"path": "auth.md", "content": "test"})
	req := httptest.NewRequest(http.MethodPost, "/cards", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/cards", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/cards", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/cards", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// testEnvWithSSE creates a router with a stub SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	svc, _, vaultDir := testEnvWithVault(t, false, "")

	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	return NewRouter(svc, authEnabled, token, sseHandler, vaultDir)
}

// Attachment tests.

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAndServeAttachment(t *testing.T) {
	_, router, vaultDir := testEnvWithVault(t, false, "")

	w := uploadFile(t, router, "test.png", []byte("fake-png-data"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["filename"] != "test.png" {
		t.Errorf("filename = %v", resp["filename"])
	}

	data, err := os.ReadFile(filepath.Join(vaultDir, "attachments", "test.png"))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if string(data) != "fake-png-data" {
		t.Errorf("content mismatch")
	}

	// Serve it back.
	req := httptest.NewRequest(http.MethodGet, "/attachments/test.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("serve = %d", rec.Code)
	}
	if rec.Body.String() != "fake-png-data" {
		t.Errorf("served content mismatch")
	}
}

func TestServeAttachment_NotFound(t *testing.T) {
	ah := NewAttachmentHandler(t.TempDir())
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", ah.ServeFile)

	req := httptest.NewRequest(http.MethodGet, "/attachments/nope.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing attachment = %d, want 404", w.Code)
	}
}

func TestServeAttachment_TraversalBlocked(t *testing.T) {
	ah := NewAttachmentHandler(t.TempDir())
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", ah.ServeFile)

	for _, name := range []string{"../secret.md", "../../etc/passwd"} {
		req := httptest.NewRequest(http.MethodGet, "/attachments/"+name, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		// chi may not route the traversal paths at all (404), or our handler rejects (400).
		if w.Code == http.StatusOK {
			t.Errorf("traversal %q should not return 200", name)
		}
	}
}

func TestUploadAttachment_MissingFileField(t *testing.T) {
	_, router, _ := testEnvWithVault(t, false, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestBadJSONBodies(t *testing.T) {
	_, router := testEnv(t, "")

	for _, path := range []string{"/cards", "/bulk/tags", "/bulk/draft", "/deletion/plan", "/deletion/execute"} {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s with bad JSON = %d, want 400", path, w.Code)
		}
	}
}
