package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"unifiedfs/internal/metrics"
	"unifiedfs/internal/provider"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Authority string `json:"authority"`
	Roots     int    `json:"roots"`
	Handles   int    `json:"handles"`
}

// CallRequest is the body of POST /call.
type CallRequest struct {
	Method string          `json:"method"`
	Arg    string          `json:"arg,omitempty"`
	Extras provider.Bundle `json:"extras,omitempty"`
}

// OpenRequest is the body of POST /open.
type OpenRequest struct {
	DocumentID string `json:"document_id"`
	Mode       string `json:"mode"`
}

// OpenResponse is returned by POST /open.
type OpenResponse struct {
	Handle int `json:"handle"`
}

// WriteResponse is returned by POST /write.
type WriteResponse struct {
	Written int `json:"written"`
}

// IsChildResponse is returned by GET /is_child.
type IsChildResponse struct {
	IsChild bool `json:"is_child"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Authority: s.provider.Authority(),
		Roots:     s.provider.Registry().Len(),
		Handles:   s.provider.Handles().Len(),
	})
}

func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	roots := s.provider.QueryRoots()
	metrics.RecordOperation(provider.OpQuery, "")
	writeJSON(w, http.StatusOK, roots)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		sendError(w, r, provider.OpQuery, badRequest("missing id parameter"))
		return
	}

	doc, err := s.provider.QueryDocument(id)
	if err != nil {
		sendError(w, r, provider.OpQuery, err)
		return
	}
	metrics.RecordOperation(provider.OpQuery, "")
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		sendError(w, r, provider.OpList, badRequest("missing id parameter"))
		return
	}

	start := time.Now()
	docs, err := s.provider.QueryChildDocuments(id)
	if err != nil {
		sendError(w, r, provider.OpList, err)
		return
	}
	metrics.RecordOperation(provider.OpList, "")
	metrics.RecordListing(len(docs), time.Since(start))

	if docs == nil {
		docs = []provider.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			sendError(w, r, provider.OpSearch, badRequest("bad limit %q", v))
			return
		}
		limit = n
	}

	docs, err := s.provider.SearchDocuments(r.Context(), q.Get("q"), limit)
	if err != nil {
		sendError(w, r, provider.OpSearch, err)
		return
	}
	metrics.RecordOperation(provider.OpSearch, "")

	if docs == nil {
		docs = []provider.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleIsChild(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	parent, child := q.Get("parent"), q.Get("child")
	if parent == "" || child == "" {
		sendError(w, r, provider.OpQuery, badRequest("parent and child are required"))
		return
	}

	writeJSON(w, http.StatusOK, IsChildResponse{IsChild: s.provider.IsChildDocument(parent, child)})
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	child := q.Get("child")
	if child == "" {
		sendError(w, r, provider.OpQuery, badRequest("missing child parameter"))
		return
	}

	path, err := s.provider.FindDocumentPath(q.Get("parent"), child)
	if err != nil {
		sendError(w, r, provider.OpQuery, err)
		return
	}
	metrics.RecordOperation(provider.OpQuery, "")
	writeJSON(w, http.StatusOK, path)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		sendError(w, r, provider.OpThumbnail, badRequest("missing id parameter"))
		return
	}

	width, err := optionalInt(q.Get("w"))
	if err != nil {
		sendError(w, r, provider.OpThumbnail, err)
		return
	}
	height, err := optionalInt(q.Get("h"))
	if err != nil {
		sendError(w, r, provider.OpThumbnail, err)
		return
	}

	data, err := s.provider.OpenDocumentThumbnail(id, width, height)
	if err != nil {
		sendError(w, r, provider.OpThumbnail, err)
		return
	}
	metrics.RecordOperation(provider.OpThumbnail, "")

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, r, provider.OpResolve, badRequest("invalid request body: %v", err))
		return
	}

	result, err := s.provider.Call(req.Method, req.Arg, req.Extras)
	if err != nil {
		sendError(w, r, provider.OpResolve, err)
		return
	}

	outcome := "ok"
	if code, ok := result.Int(provider.ResultError); ok {
		outcome = provider.Kind(code).String()
		requestLogger(r).Debug("%s: %s", req.Method, result.String(provider.ResultErrorMessage))
	}
	metrics.RecordResolve(outcome)
	metrics.RecordOperation(provider.OpResolve, "")

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, r, provider.OpOpen, badRequest("invalid request body: %v", err))
		return
	}
	if req.Mode == "" {
		req.Mode = provider.ModeRead
	}

	h, err := s.provider.OpenDocument(req.DocumentID, req.Mode)
	if err != nil {
		sendError(w, r, provider.OpOpen, err)
		return
	}
	metrics.RecordOperation(provider.OpOpen, "")
	metrics.SetOpenHandles(s.provider.Handles().Len())

	writeJSON(w, http.StatusOK, OpenResponse{Handle: h})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h, err := requiredInt(q.Get("handle"), "handle")
	if err != nil {
		sendError(w, r, provider.OpRead, err)
		return
	}
	offset, err := optionalInt(q.Get("offset"))
	if err != nil {
		sendError(w, r, provider.OpRead, err)
		return
	}
	length, err := optionalInt(q.Get("length"))
	if err != nil {
		sendError(w, r, provider.OpRead, err)
		return
	}
	if length == 0 {
		length = DefaultReadLength
	}
	if length > MaxReadLength {
		length = MaxReadLength
	}

	buf := make([]byte, length)
	n, err := s.provider.Handles().ReadAt(h, buf, int64(offset))
	if err != nil {
		sendError(w, r, provider.OpRead, err)
		return
	}
	metrics.RecordOperation(provider.OpRead, "")
	metrics.RecordRead(n)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(n))
	_, _ = w.Write(buf[:n])
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h, err := requiredInt(q.Get("handle"), "handle")
	if err != nil {
		sendError(w, r, provider.OpWrite, err)
		return
	}
	offset, err := optionalInt(q.Get("offset"))
	if err != nil {
		sendError(w, r, provider.OpWrite, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, MaxReadLength+1))
	if err != nil {
		sendError(w, r, provider.OpWrite, badRequest("failed to read body: %v", err))
		return
	}
	if len(data) > MaxReadLength {
		sendError(w, r, provider.OpWrite, badRequest("body exceeds %d bytes", MaxReadLength))
		return
	}

	n, err := s.provider.Handles().WriteAt(h, data, int64(offset))
	if err != nil {
		sendError(w, r, provider.OpWrite, err)
		return
	}
	metrics.RecordOperation(provider.OpWrite, "")
	metrics.RecordWrite(n)

	writeJSON(w, http.StatusOK, WriteResponse{Written: n})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	h, err := requiredInt(r.URL.Query().Get("handle"), "handle")
	if err != nil {
		sendError(w, r, provider.OpClose, err)
		return
	}

	if err := s.provider.Handles().Close(h); err != nil {
		sendError(w, r, provider.OpClose, err)
		return
	}
	metrics.RecordOperation(provider.OpClose, "")
	metrics.SetOpenHandles(s.provider.Handles().Len())

	w.WriteHeader(http.StatusNoContent)
}

func optionalInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest("bad integer %q", v)
	}
	return n, nil
}

func requiredInt(v, name string) (int, error) {
	if v == "" {
		return 0, badRequest("missing %s parameter", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("bad %s %q", name, v)
	}
	return n, nil
}
