package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/wesm/chatzip/internal/db"
	"github.com/wesm/chatzip/internal/export"
	"github.com/wesm/chatzip/internal/extract"
)

const defaultMaxBodyBytes = 10 << 20

// textRequest is the JSON body accepted by the extract and
// archive routes.
type textRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Files []extract.FileEntry `json:"files"`
	Count int                 `json:"count"`
	Stats extract.Stats       `json:"stats"`
}

// readText returns the chat text carried by r. JSON bodies hold
// it in a "text" field; any other content type is taken as the
// text itself.
func (s *Server) readText(
	w http.ResponseWriter, r *http.Request,
) (string, error) {
	limit := s.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	defer body.Close()

	mediaType, _, _ := mime.ParseMediaType(
		r.Header.Get("Content-Type"),
	)
	if mediaType == "application/json" {
		var req textRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return "", err
		}
		return req.Text, nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (s *Server) handleExtract(
	w http.ResponseWriter, r *http.Request,
) {
	text, err := s.readText(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	key := cacheKey(text)
	if resp, ok := s.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	files, stats := extract.ExtractWithStats(text)
	if files == nil {
		files = []extract.FileEntry{}
	}
	resp := extractResponse{
		Files: files,
		Count: len(files),
		Stats: stats,
	}
	s.cache.Add(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArchive(
	w http.ResponseWriter, r *http.Request,
) {
	text, err := s.readText(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	res, err := s.exporter.Run(r.Context(), "http", text)
	if errors.Is(err, export.ErrNothingFound) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		log.Printf("archive: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, res.Name))
	h.Set("Content-Length", strconv.Itoa(len(res.Data)))
	h.Set("X-Chatzip-Files", strconv.Itoa(len(res.Files)))
	if res.Export != nil {
		h.Set("X-Chatzip-Export-Id", res.Export.ID)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		log.Printf("archive: writing response: %v", err)
	}
}

// historyDB returns the database or writes a 503 when export
// history is disabled.
func (s *Server) historyDB(w http.ResponseWriter) (*db.DB, bool) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable,
			"export history unavailable")
		return nil, false
	}
	return s.db, true
}

func (s *Server) handleListExports(
	w http.ResponseWriter, r *http.Request,
) {
	database, ok := s.historyDB(w)
	if !ok {
		return
	}

	limit := db.DefaultExportLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	exports, err := database.ListExports(r.Context(), limit)
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exports": exports,
		"count":   len(exports),
	})
}

func (s *Server) handleGetExport(
	w http.ResponseWriter, r *http.Request,
) {
	database, ok := s.historyDB(w)
	if !ok {
		return
	}

	e, err := database.GetExport(r.Context(), r.PathValue("id"))
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}
