package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"

	"github.com/umputun/capwatch/app/capture"
	"github.com/umputun/capwatch/app/tracker"
)

// APICapture represents a capture job with its local state in JSON API response
type APICapture struct {
	Key         string            `json:"key"`
	JobID       string            `json:"jobid"`
	Index       int               `json:"index"`
	Status      capture.Status    `json:"status"`
	Label       string            `json:"label"`
	CaptureURL  string            `json:"captureUrl"`
	UserTag     string            `json:"userTag,omitempty"`
	StartTime   capture.Timestamp `json:"startTime"`
	AccessURL   string            `json:"accessUrl,omitempty"`
	Size        *int64            `json:"size,omitempty"`
	SizeHuman   string            `json:"size_human,omitempty"`
	ShowPreview bool              `json:"showPreview"`
	IsDeleting  bool              `json:"isDeleting"`
	Retryable   bool              `json:"retryable"`
	Preview     *APIPreview       `json:"preview,omitempty"`
}

// APIPreview holds inputs for the page preview viewer
type APIPreview struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// APICapturesResponse is the JSON response for GET /api/v1/captures
type APICapturesResponse struct {
	Captures []APICapture          `json:"captures"`
	Message  string                `json:"message,omitempty"` // last user-visible error
	Sort     capture.SortKey       `json:"sort"`
	Desc     bool                  `json:"desc"`
	SortKeys []capture.SortKeyInfo `json:"sort_keys"`
}

// APISubmitRequest is the JSON body for POST /api/v1/captures
type APISubmitRequest struct {
	URLs string `json:"urls"` // one url per line
	Tag  string `json:"tag"`
}

// toAPICapture converts capture.View to APICapture
func toAPICapture(v capture.View) APICapture {
	res := APICapture{
		Key:         v.Key.String(),
		JobID:       v.JobID,
		Index:       v.Index,
		Status:      v.Status,
		Label:       v.Label(),
		CaptureURL:  v.CaptureURL,
		UserTag:     v.UserTag,
		StartTime:   v.StartTime,
		AccessURL:   v.AccessURL,
		Size:        v.Size,
		ShowPreview: v.ShowPreview,
		IsDeleting:  v.IsDeleting,
		Retryable:   v.Status != capture.StatusInProgress && v.Status != capture.StatusQueued,
	}
	if v.Size != nil && *v.Size >= 0 {
		res.SizeHuman = humanize.Bytes(uint64(*v.Size))
	}
	if v.ShowPreview && v.Status == capture.StatusComplete && v.AccessURL != "" {
		res.Preview = &APIPreview{Source: v.AccessURL, URL: v.CaptureURL}
	}
	return res
}

// handleList returns sorted captures, sort key and direction from "sort" and "desc" query params
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	key, err := capture.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "invalid sort key")
		return
	}
	desc := capture.DefaultSortDesc
	if v := r.URL.Query().Get("desc"); v != "" {
		if desc, err = strconv.ParseBool(v); err != nil {
			rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "invalid desc value")
			return
		}
	}

	views := capture.Sort(s.tracker.Views(), key, desc)
	resp := APICapturesResponse{
		Captures: make([]APICapture, 0, len(views)),
		Message:  s.tracker.Error(),
		Sort:     key,
		Desc:     desc,
		SortKeys: capture.SortKeys,
	}
	for _, v := range views {
		resp.Captures = append(resp.Captures, toAPICapture(v))
	}
	rest.RenderJSON(w, resp)
}

// handleSubmit queues new captures
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req APISubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "invalid request body")
		return
	}
	if err := s.tracker.Submit(r.Context(), req.URLs, req.Tag); err != nil {
		s.sendMutationError(w, r, err)
		return
	}
	rest.RenderJSON(w, rest.JSON{"status": "ok"})
}

// handleDelete deletes a capture job
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, ok := s.pathKey(w, r)
	if !ok {
		return
	}
	if err := s.tracker.Delete(r.Context(), key); err != nil {
		s.sendMutationError(w, r, err)
		return
	}
	rest.RenderJSON(w, rest.JSON{"status": "ok", "key": key.String()})
}

// handleRetry queues capture of the job's url again
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	key, ok := s.pathKey(w, r)
	if !ok {
		return
	}
	if err := s.tracker.Retry(r.Context(), key); err != nil {
		s.sendMutationError(w, r, err)
		return
	}
	rest.RenderJSON(w, rest.JSON{"status": "ok", "key": key.String()})
}

// handlePreview toggles preview of the job
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	key, ok := s.pathKey(w, r)
	if !ok {
		return
	}
	on, err := s.tracker.TogglePreview(key)
	if err != nil {
		s.sendMutationError(w, r, err)
		return
	}
	rest.RenderJSON(w, rest.JSON{"key": key.String(), "showPreview": on})
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.tracker.Trigger()
	rest.RenderJSON(w, rest.JSON{"status": "ok"})
}

func (s *Server) handleClearError(w http.ResponseWriter, _ *http.Request) {
	s.tracker.ClearError()
	rest.RenderJSON(w, rest.JSON{"status": "ok"})
}

// pathKey extracts job key from path, sends 400 response for invalid key
func (s *Server) pathKey(w http.ResponseWriter, r *http.Request) (capture.Key, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "invalid index")
		return capture.Key{}, false
	}
	key := capture.Key{JobID: r.PathValue("jobid"), Index: index}
	if !key.Valid() {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, errors.New("incomplete key"), "job id and index required")
		return capture.Key{}, false
	}
	return key, true
}

// sendMutationError maps tracker errors to response codes, user-visible message goes to the body
func (s *Server) sendMutationError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, tracker.ErrInvalidURLs):
		code = http.StatusBadRequest
	case errors.Is(err, tracker.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, tracker.ErrMutationFailed):
		code = http.StatusBadGateway
	}
	msg := s.tracker.Error()
	if msg == "" {
		msg = err.Error()
	}
	rest.SendErrorJSON(w, r, log.Default(), code, err, msg)
}
