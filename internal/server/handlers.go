package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/roach88/slideboard/internal/chat"
	"github.com/roach88/slideboard/internal/codec"
	"github.com/roach88/slideboard/internal/model"
	"github.com/roach88/slideboard/internal/preview"
	"github.com/roach88/slideboard/internal/templates"
)

// maxBody caps request bodies. Exports with embedded images can be large.
const maxBody = 32 << 20

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// DeckSummary is the list view of a deck.
type DeckSummary struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	CanvasEngine model.Engine `json:"canvasEngine"`
	FolderID     *string      `json:"folderId"`
	Slides       int          `json:"slides"`
	UpdatedAt    int64        `json:"updatedAt"`
	Current      bool         `json:"current"`
}

func (s *Server) listPresentations(w http.ResponseWriter, _ *http.Request) {
	st := s.deps.Store.State()
	out := make([]DeckSummary, 0, len(st.Presentations))
	for _, d := range st.Presentations {
		out = append(out, DeckSummary{
			ID:           d.ID,
			Name:         d.Name,
			CanvasEngine: d.CanvasEngine,
			FolderID:     d.FolderID,
			Slides:       len(d.Slides),
			UpdatedAt:    d.UpdatedAt,
			Current:      st.CurrentPresentationID != nil && *st.CurrentPresentationID == d.ID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type createRequest struct {
	Name     string  `json:"name"`
	FolderID *string `json:"folderId"`
	Engine   string  `json:"engine"`
}

func (s *Server) createPresentation(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	var engine model.Engine
	if req.Engine != "" {
		e, err := model.ParseEngine(req.Engine)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		engine = e
	}

	id := s.deps.Store.CreatePresentation(req.Name, req.FolderID, engine)
	d, _ := s.deps.Store.State().Deck(id)
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) getPresentation(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deps.Store.State().Deck(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "presentation not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) deletePresentation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.deps.Store.State().Deck(id); !ok {
		writeError(w, http.StatusNotFound, "presentation not found")
		return
	}
	s.deps.Store.DeletePresentation(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportPresentation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, ok := s.deps.Store.State().Deck(id)
	if !ok {
		writeError(w, http.StatusNotFound, "presentation not found")
		return
	}
	doc, ok := s.deps.Store.ExportPresentation(id)
	if !ok {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", codec.FileName(d.Name)))
	_, _ = io.WriteString(w, doc)
}

func (s *Server) importPresentation(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}
	id, err := s.deps.Store.Import(doc)
	if err != nil {
		var ie *codec.ImportError
		if errors.As(err, &ie) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: ie.Error(), Field: ie.Field})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) updateCanvas(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deckID, slideID := vars["id"], vars["slide"]
	d, ok := s.deps.Store.State().Deck(deckID)
	if !ok || d.SlideIndex(slideID) < 0 {
		writeError(w, http.StatusNotFound, "slide not found")
		return
	}

	var patch model.SlidePatch
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if !s.deps.Canvas.OnChange(deckID, slideID, patch) {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) folderTree(w http.ResponseWriter, _ *http.Request) {
	st := s.deps.Store.State()
	writeJSON(w, http.StatusOK, model.BuildFolderTree(st.Folders, st.Presentations))
}

func (s *Server) listTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, templates.All())
}

type previewBody struct {
	SlideID string `json:"slideId"`
	DataURL string `json:"dataUrl"`
}

func (s *Server) getPreview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["slide"]
	url, ok, err := s.deps.Previews.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "preview not found")
		return
	}
	writeJSON(w, http.StatusOK, previewBody{SlideID: id, DataURL: url})
}

func (s *Server) putPreview(w http.ResponseWriter, r *http.Request) {
	var body previewBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	err := s.deps.Previews.Set(r.Context(), mux.Vars(r)["slide"], body.DataURL)
	switch {
	case errors.Is(err, preview.ErrInvalidPreview):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) deletePreview(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Previews.Delete(r.Context(), mux.Vars(r)["slide"]); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
	Stream   bool           `json:"stream"`
}

// chat relays a conversation to the upstream service. A streaming answer
// is passed through as server-sent events.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Chat == nil || !s.deps.Chat.HasKey() {
		writeError(w, http.StatusInternalServerError, "OPENROUTER_API_KEY is missing on the server.")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "Request must include a non-empty messages array.")
		return
	}

	resp, err := s.deps.Chat.Open(r.Context(), req.Messages, req.Stream)
	if err != nil {
		var apiErr *chat.APIError
		if errors.As(err, &apiErr) {
			writeError(w, apiErr.Status, fmt.Sprintf("OpenRouter API error: %d - %s", apiErr.Status, apiErr.Body))
			return
		}
		s.log.Warn("chat relay failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer resp.Body.Close()

	if !req.Stream {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, resp.Body)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}
