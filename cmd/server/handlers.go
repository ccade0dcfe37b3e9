package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hmatsuda/docparse"
	"github.com/hmatsuda/docparse/store"
)

const previewRunes = 200

type handler struct {
	engine     docparse.Engine
	sessions   *store.Store
	dataDir    string
	sessionTTL time.Duration
}

func newHandler(e docparse.Engine, s *store.Store, dataDir string, ttl time.Duration) *handler {
	return &handler{engine: e, sessions: s, dataDir: dataDir, sessionTTL: ttl}
}

// POST /upload
// Accepts a multipart PDF upload, runs the full pipeline synchronously,
// and returns a session ID for fetching the output later.
func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(100 << 20); err != nil { // 100MB max
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	// Sanitise filename to prevent path traversal.
	safeName := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(safeName), ".pdf") {
		writeError(w, http.StatusBadRequest, "only .pdf files are accepted")
		return
	}

	sessionID := uuid.NewString()

	tmpPath := filepath.Join(os.TempDir(), sessionID+"_"+safeName)
	dst, err := os.Create(tmpPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process file")
		slog.Error("creating temp file", "error", err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, "failed to save file")
		slog.Error("saving uploaded file", "error", err)
		return
	}
	dst.Close()
	defer os.Remove(tmpPath)

	outputDir := filepath.Join(h.dataDir, "outputs", sessionID)

	doc, err := h.engine.Process(r.Context(), tmpPath, outputDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "processing failed")
		slog.Error("process error", "filename", safeName, "error", err)
		return
	}

	saved, err := h.engine.Save(doc, outputDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "saving output failed")
		slog.Error("save error", "filename", safeName, "error", err)
		return
	}

	now := time.Now()
	sess := store.Session{
		ID:           sessionID,
		OutputFile:   saved.TextFile,
		Filename:     safeName,
		PageCount:    doc.TotalPages(),
		InputTokens:  doc.Cost.InputTokens,
		OutputTokens: doc.Cost.OutputTokens,
		CreatedAt:    now,
		ExpiresAt:    now.Add(h.sessionTTL),
	}
	if err := h.sessions.Put(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "saving session failed")
		slog.Error("session put error", "session", sessionID, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":    sessionID,
		"filename":      safeName,
		"page_count":    doc.TotalPages(),
		"input_tokens":  doc.Cost.InputTokens,
		"output_tokens": doc.Cost.OutputTokens,
		"preview":       preview(doc),
	})
}

// GET /download/{id}
func (h *handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess, err := h.getSession(w, r)
	if err != nil {
		return
	}

	f, err := os.Open(sess.OutputFile)
	if err != nil {
		writeError(w, http.StatusNotFound, "output file no longer available")
		slog.Error("opening output file", "session", sess.ID, "error", err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(sess.OutputFile)))
	io.Copy(w, f)
}

// GET /status/{id}
func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := h.getSession(w, r)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// getSession resolves the path's session ID, writing the error response
// itself when lookup fails.
func (h *handler) getSession(w http.ResponseWriter, r *http.Request) (*store.Session, error) {
	id := r.PathValue("id")
	sess, err := h.sessions.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, err
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session lookup failed")
		slog.Error("session get error", "session", id, "error", err)
		return nil, err
	}
	return sess, nil
}

// preview returns the first page's opening runes for the upload response.
func preview(doc *docparse.Document) string {
	if len(doc.Contents) == 0 {
		return ""
	}
	text := doc.Contents[0].Contents
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRunes]) + "..."
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
