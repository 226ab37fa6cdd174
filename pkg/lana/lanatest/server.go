// Copyright (C) 2022  The golana Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package lanatest provides an in-memory fake of the LANA backend, for testing code that uses
// package lana.
package lanatest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
)

// UserID is the id of the (only) user of a Server.
const UserID = "user-1"

// Log is a log held by a Server.
type Log struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	OwnerID  string `json:"ownerId"`
	EventCSV string `json:"-"`
}

// File is an uploaded file.
type File struct {
	Filename    string
	ContentType string
	Content     string
}

// Upload records one multipart POST received by a Server.
type Upload struct {
	Path   string
	Files  map[string]File
	Fields map[string]string
}

// Server is a fake LANA backend.  It is safe for concurrent use.
type Server struct {
	*httptest.Server

	// Authorizations lists the accepted values of the Authorization header.
	Authorizations []string

	// DeleteHook, if set, is called with the log id at the start of each DELETE request.
	DeleteHook func(logID string)

	mu        sync.Mutex
	user      map[string]interface{}
	logs      []Log
	uploads   []Upload
	nextID    int
	failNext  int
	protected map[string]bool
	requests  []string
}

// NewServer starts a fake backend that accepts "API-Key <token>".  Call Close when done.
func NewServer(token string) *Server {
	s := &Server{
		Authorizations: []string{"API-Key " + token},
		user: map[string]interface{}{
			"id":                UserID,
			"organizationId":    "org-1",
			"email":             "jane@example.com",
			"role":              "User",
			"apiKey":            token,
			"apiKeyStatus":      "Active",
			"acceptedTerms":     true,
			"backendInstanceId": "backend-1",
			"preferences":       map[string]interface{}{},
		},
		nextID:    1,
		protected: make(map[string]bool),
	}

	router := chi.NewRouter()
	router.Use(s.record, s.authenticate, s.injectFailures)
	router.Get("/api/users/by-token", s.handleUser)
	router.Get("/api/users/{userID}/logs", s.handleUserLogs)
	router.Get("/api/logs", s.handleLogs)
	router.Post("/api/logs/csv", s.handleCreateLog)
	router.Post("/api/logs/csv-case-attributes-event-semantics", s.handleCreateLog)
	router.Post("/api/logs/{logID}/csv", s.handleAppend)
	router.Post("/api/logs/{logID}/csv-case-attributes", s.handleAppend)
	router.Delete("/api/logs/{logID}", s.handleDelete)
	router.Get("/api/eventCsvWithFilter", s.handleEventCSV)

	s.Server = httptest.NewServer(router)
	return s
}

// AddLog adds a log and returns its id.
func (s *Server) AddLog(name, ownerID, eventCSV string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLogLocked(name, ownerID, eventCSV)
}

func (s *Server) addLogLocked(name, ownerID, eventCSV string) string {
	id := strconv.Itoa(s.nextID)
	s.nextID++
	s.logs = append(s.logs, Log{ID: id, Name: name, OwnerID: ownerID, EventCSV: eventCSV})
	return id
}

// Logs returns a snapshot of the logs.
func (s *Server) Logs() []Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Log(nil), s.logs...)
}

// Uploads returns every multipart request received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Requests returns "METHOD PATH" for every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// FailNext makes the next n authenticated requests fail with HTTP 500.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// ProtectLog makes requests to delete the log fail with HTTP 403.
func (s *Server) ProtectLog(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protected[id] = true
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("Authorization")
		for _, ok := range s.Authorizations {
			if got == ok {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "invalid token", http.StatusUnauthorized)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		fail := s.failNext > 0
		if fail {
			s.failNext--
		}
		s.mu.Unlock()
		if fail {
			http.Error(w, "injected failure", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.user)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Logs())
}

func (s *Server) handleUserLogs(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	owned := []Log{}
	for _, log := range s.Logs() {
		if log.OwnerID == userID {
			owned = append(owned, log)
		}
	}
	writeJSON(w, http.StatusOK, owned)
}

func (s *Server) parseUpload(r *http.Request) (Upload, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return Upload{}, err
	}
	up := Upload{
		Path:   r.URL.Path,
		Files:  make(map[string]File),
		Fields: make(map[string]string),
	}
	for name, vals := range r.MultipartForm.Value {
		up.Fields[name] = vals[0]
	}
	for name, headers := range r.MultipartForm.File {
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return Upload{}, err
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return Upload{}, err
		}
		up.Files[name] = File{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     string(content),
		}
	}
	return up, nil
}

func (s *Server) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	up, err := s.parseUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	events, ok := up.Files["eventCSVFile"]
	if !ok {
		events, ok = up.Files["file"]
	}
	if !ok {
		http.Error(w, "no event file", http.StatusBadRequest)
		return
	}
	if _, ok := up.Fields["eventSemantics"]; !ok {
		http.Error(w, "no event semantics", http.StatusBadRequest)
		return
	}
	name := up.Fields["logName"]
	if name == "" {
		name = events.Filename
	}

	s.mu.Lock()
	s.uploads = append(s.uploads, up)
	id := s.addLogLocked(name, UserID, events.Content)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "name": name})
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	logID := chi.URLParam(r, "logID")
	up, err := s.parseUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, log := range s.logs {
		if log.ID == logID {
			s.uploads = append(s.uploads, up)
			writeJSON(w, http.StatusOK, map[string]string{"id": logID})
			return
		}
	}
	http.Error(w, "no such log", http.StatusNotFound)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	logID := chi.URLParam(r, "logID")
	if s.DeleteHook != nil {
		s.DeleteHook(logID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.protected[logID] {
		http.Error(w, "log is protected", http.StatusForbidden)
		return
	}
	for i, log := range s.logs {
		if log.ID == logID {
			s.logs = append(s.logs[:i], s.logs[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "no such log", http.StatusNotFound)
}

func (s *Server) handleEventCSV(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LogID         string `json:"logId"`
		IncludeHeader bool   `json:"includeHeader"`
	}
	if err := json.Unmarshal([]byte(r.URL.Query().Get("request")), &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, log := range s.Logs() {
		if log.ID == req.LogID {
			w.Header().Set("Content-Type", "text/csv")
			_, _ = io.WriteString(w, log.EventCSV)
			return
		}
	}
	http.Error(w, "no such log", http.StatusNotFound)
}
