package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/matzehuels/kvtools/pkg/buildinfo"
	kverrors "github.com/matzehuels/kvtools/pkg/errors"
	"github.com/matzehuels/kvtools/pkg/nodes"
	"github.com/matzehuels/kvtools/pkg/registry"
)

// maxPeekBody bounds the peek request body.
const maxPeekBody = 64 << 10

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type refreshResponse struct {
	OK      bool               `json:"ok"`
	Written string             `json:"written"`
	Files   int                `json:"files"`
	Skipped []registry.Skipped `json:"skipped,omitempty"`
}

type peekRequest struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
	Key      string `json:"key"`
}

type peekResponse struct {
	OK    bool   `json:"ok"`
	Value string `json:"value"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		OK      bool   `json:"ok"`
		Version string `json:"version"`
	}{true, buildinfo.Version})
}

func (s *Server) handleNodes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.nodes.Manifest())
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	ix := s.Index()
	if ix == nil {
		writeError(w, http.StatusNotFound, kverrors.New(kverrors.ErrCodeNotFound, "registry has not been scanned yet"))
		return
	}
	data, err := registry.EncodeIndex(ix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, written, err := s.Refresh(r.Context())
	if err != nil {
		s.logger.Error("registry refresh failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		OK:      true,
		Written: written,
		Files:   len(res.Index.Files),
		Skipped: res.Skipped,
	})
}

func (s *Server) handlePeek(w http.ResponseWriter, r *http.Request) {
	var req peekRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPeekBody))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, kverrors.Wrap(kverrors.ErrCodeInvalidInput, err, "malformed request body"))
		return
	}

	file := req.FileName
	if strings.TrimSpace(file) == "" {
		file = req.Path
	}
	if strings.TrimSpace(file) == "" || req.Key == "" {
		writeError(w, http.StatusBadRequest, kverrors.New(kverrors.ErrCodeInvalidInput, "missing file_name or key"))
		return
	}
	if err := kverrors.ValidateStoreKey(req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := kverrors.ValidateStoreFileName(lastSegment(file)); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	value, err := s.reader.ReadValue(r.Context(), file, req.Key)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, peekResponse{OK: true, Value: value})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := firstNonEmpty(q.Get("file"), q.Get("registry"), q.Get("path"))
	key := q.Get("key")

	path, err := s.resolver.ResolveImage(r.Context(), ref, key, q.Get("ext"))
	if err != nil {
		status := statusFor(err)
		if kverrors.Is(err, kverrors.ErrCodeInvalidReference) {
			status = http.StatusNotFound
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", nodes.ContentTypeFor(path))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// statusFor maps error codes to HTTP statuses.
func statusFor(err error) int {
	switch kverrors.GetCode(err) {
	case kverrors.ErrCodeForbidden:
		return http.StatusForbidden
	case kverrors.ErrCodeNotFound, kverrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case kverrors.ErrCodeValidation, kverrors.ErrCodeMalformedStore:
		return http.StatusUnprocessableEntity
	case kverrors.ErrCodeInvalidInput, kverrors.ErrCodeInvalidReference, kverrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		OK:    false,
		Error: kverrors.UserMessage(err),
		Code:  string(kverrors.GetCode(err)),
	})
}

// lastSegment keeps the final path component of s. Paths are accepted in
// peek requests but only their base name is ever opened.
func lastSegment(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
