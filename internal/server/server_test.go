package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slideboard/internal/chat"
	"github.com/roach88/slideboard/internal/engine"
	"github.com/roach88/slideboard/internal/metrics"
	"github.com/roach88/slideboard/internal/model"
	"github.com/roach88/slideboard/internal/preview"
	"github.com/roach88/slideboard/internal/store"
	"github.com/roach88/slideboard/internal/testutil"
)

type fixture struct {
	srv   *Server
	store *engine.Store
}

func setupServer(t *testing.T, chatClient *chat.Client) *fixture {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	previews, err := preview.New(db, 16)
	require.NoError(t, err)

	s := engine.New(model.EmptyState(),
		engine.WithClock(testutil.NewFixedClock(1000)),
		engine.WithIDs(testutil.NewSequenceIDs("id")))

	srv := New(Deps{
		Store:    s,
		Canvas:   engine.NewCanvasSync(s, time.Hour),
		Previews: previews,
		Chat:     chatClient,
		Metrics:  metrics.New(),
	})
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: s}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, r)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPresentations_CRUD(t *testing.T) {
	f := setupServer(t, nil)

	rec := f.do(t, http.MethodPost, "/api/presentations", `{"name":"Algebra","engine":"excalidraw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[model.Deck](t, rec)
	assert.Equal(t, "Algebra", created.Name)
	assert.Equal(t, model.EngineExcalidraw, created.CanvasEngine)

	rec = f.do(t, http.MethodGet, "/api/presentations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]DeckSummary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Slides)
	assert.True(t, list[0].Current)

	rec = f.do(t, http.MethodGet, "/api/presentations/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/presentations/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/presentations/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePresentation_Validation(t *testing.T) {
	f := setupServer(t, nil)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/presentations", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/presentations", `{"name":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/presentations", `{"name":"x","engine":"paint"}`).Code)
	assert.Empty(t, f.store.State().Presentations)
}

func TestExportImport(t *testing.T) {
	f := setupServer(t, nil)
	id := f.store.CreatePresentation("Física 1", nil, model.EngineTldraw)

	rec := f.do(t, http.MethodGet, "/api/presentations/"+id+"/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `Fisica_1.slideboard.json`)

	rec = f.do(t, http.MethodPost, "/api/presentations/import", rec.Body.String())
	require.Equal(t, http.StatusCreated, rec.Code)
	imported := decodeBody[map[string]string](t, rec)["id"]
	d, ok := f.store.State().Deck(imported)
	require.True(t, ok)
	assert.Equal(t, "Física 1 (Imported)", d.Name)

	rec = f.do(t, http.MethodPost, "/api/presentations/import", `{"name":"x","slides":{}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "slides", decodeBody[errorBody](t, rec).Field)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/presentations/missing/export", "").Code)
}

func TestUpdateCanvas_Debounced(t *testing.T) {
	f := setupServer(t, nil)
	id := f.store.CreatePresentation("Deck", nil, model.EngineTldraw)
	d, _ := f.store.State().Deck(id)
	slideID := d.Slides[0].ID

	rec := f.do(t, http.MethodPut, "/api/presentations/"+id+"/slides/"+slideID+"/canvas", `{"snapshot":{"v":1}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = f.do(t, http.MethodPut, "/api/presentations/"+id+"/slides/"+slideID+"/canvas", `{"snapshot":{"v":2}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	d, _ = f.store.State().Deck(id)
	assert.Nil(t, d.Slides[0].Payload.(model.TldrawPayload).Snapshot, "edit is still pending")

	require.True(t, f.srv.deps.Canvas.Flush(id, slideID))
	d, _ = f.store.State().Deck(id)
	assert.JSONEq(t, `{"v":2}`, string(d.Slides[0].Payload.(model.TldrawPayload).Snapshot))

	assert.Equal(t, http.StatusNotFound,
		f.do(t, http.MethodPut, "/api/presentations/"+id+"/slides/nope/canvas", `{}`).Code)
}

func TestFoldersAndTemplates(t *testing.T) {
	f := setupServer(t, nil)
	parent := f.store.CreateFolder("Courses", nil)
	f.store.CreateFolder("Physics", model.StringPtr(parent))

	tree := decodeBody[model.FolderTree](t, f.do(t, http.MethodGet, "/api/folders", ""))
	require.Len(t, tree.Roots, 1)
	assert.Equal(t, "Physics", tree.Roots[0].Children[0].Folder.Name)

	rec := f.do(t, http.MethodGet, "/api/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 14)
}

func TestPreviews(t *testing.T) {
	f := setupServer(t, nil)
	const url = "data:image/png;base64,AAAA"

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/previews/s1", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/previews/s1", `{"dataUrl":"nope"}`).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPut, "/api/previews/s1", `{"dataUrl":"`+url+`"}`).Code)

	rec := f.do(t, http.MethodGet, "/api/previews/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, url, decodeBody[previewBody](t, rec).DataURL)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/previews/s1", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/previews/s1", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupServer(t, nil)
	f.store.CreatePresentation("A", nil, "")

	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "slideboard_websocket_clients")
}

func newChatClient(t *testing.T, key string) *chat.Client {
	t.Helper()
	hc := &http.Client{}
	gock.InterceptClient(hc)
	t.Cleanup(func() {
		gock.RestoreClient(hc)
		gock.Off()
	})
	return chat.New("https://chat.example.test/v1/chat", "test/model", key, chat.WithHTTPClient(hc))
}

func TestChat_Validation(t *testing.T) {
	f := setupServer(t, newChatClient(t, ""))
	rec := f.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "OPENROUTER_API_KEY")

	f = setupServer(t, newChatClient(t, "sk"))
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/chat", `nope`).Code)
	rec = f.do(t, http.MethodPost, "/api/chat", `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "non-empty messages array")
}

func TestChat_RelaysUpstream(t *testing.T) {
	f := setupServer(t, newChatClient(t, "sk"))

	gock.New("https://chat.example.test").Post("/v1/chat").
		Reply(200).JSON(map[string]any{"choices": []map[string]any{{"message": map[string]string{"content": "hello"}}}})
	rec := f.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello")

	gock.New("https://chat.example.test").Post("/v1/chat").
		Reply(200).BodyString("data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\ndata: [DONE]\n\n")
	rec = f.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}],"stream":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "data: [DONE]")

	gock.New("https://chat.example.test").Post("/v1/chat").Reply(402).BodyString("no credits")
	rec = f.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "OpenRouter API error: 402 - no credits")
}

func TestChangeFeed(t *testing.T) {
	f := setupServer(t, nil)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.srv.hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	id := f.store.CreatePresentation("Live", nil, "")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.NewDecoder(bytes.NewReader(msg)).Decode(&ev))
	assert.Equal(t, "state", ev.Type)
	assert.Equal(t, "create_presentation", ev.Action)
	assert.Equal(t, id, ev.Current)
	assert.Equal(t, uint64(1), ev.Seq)
}
