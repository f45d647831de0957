// Package generatepdfstest runs an in-process fake of the
// generatepdfs.com conversion API, letting application code exercise
// the full generate/refresh/download flow without network access or a
// real token.
//
// The fake never converts anything. Jobs are created in the pending
// state and move only when the test drives them via [Server.SetStatus]
// or [Server.Complete].
package generatepdfstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
)

// Document is the fake server's record of one submitted conversion job,
// including what the client sent.
type Document struct {
	ID        int
	Name      string
	Status    string
	Content   []byte
	CreatedAt time.Time

	// Submitted payload, captured for assertions.
	HTML   string
	CSS    string
	URL    string
	Images []Image
}

// Image mirrors a single image attachment as it arrives on the wire.
type Image struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	MIMEType string `json:"mime_type"`
}

// Server is a fake conversion API backed by [httptest.Server]. The
// embedded server starts listening on a local port immediately; call
// Close when done.
type Server struct {
	*httptest.Server

	token    string
	requests atomic.Int64

	mu     sync.Mutex
	nextID int
	docs   map[int]*Document
}

// New starts a fake conversion API that accepts the given bearer token.
func New(token string) *Server {
	s := &Server{
		token: token,
		docs:  make(map[int]*Document),
	}

	r := mux.NewRouter()
	r.HandleFunc("/pdfs/generate", s.handleGenerate).Methods("POST")
	r.HandleFunc("/pdfs/{id}", s.handleGet).Methods("GET")
	r.HandleFunc("/pdfs/{id}/download", s.handleDownload).Methods("GET")

	s.Server = httptest.NewServer(s.counting(r))

	return s
}

// BaseURL returns the address to point a client at.
func (s *Server) BaseURL() string {
	return s.Server.URL
}

// Requests returns how many HTTP requests have reached the server,
// including rejected ones.
func (s *Server) Requests() int {
	return int(s.requests.Load())
}

// Seed inserts a job directly, bypassing the generate endpoint, and
// returns its id.
func (s *Server) Seed(name, status string, content []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.createLocked()
	doc := s.docs[id]
	doc.Name = name
	doc.Status = status
	doc.Content = content

	return id
}

// SetStatus moves the job with the given id to status.
func (s *Server) SetStatus(id int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("no document with id %d", id)
	}
	doc.Status = status

	return nil
}

// Complete marks the job finished and sets the bytes its download URL
// will serve.
func (s *Server) Complete(id int, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("no document with id %d", id)
	}
	doc.Status = "completed"
	doc.Content = content

	return nil
}

// Get returns a snapshot of the job with the given id.
func (s *Server) Get(id int) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, false
	}

	return *doc, true
}

// createLocked allocates the next job. Callers must hold mu.
func (s *Server) createLocked() int {
	s.nextID++
	id := s.nextID
	s.docs[id] = &Document{
		ID:        id,
		Name:      fmt.Sprintf("document-%d.pdf", id),
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}

	return id
}

func (s *Server) counting(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+s.token {
		respondError(w, http.StatusUnauthorized, "invalid or missing bearer token")
		return false
	}

	return true
}

// generatePayload decodes a submission. HTML and URL are pointers so
// that an empty document, a legal submission, stays distinguishable
// from an absent key.
type generatePayload struct {
	HTML   *string `json:"html"`
	CSS    string  `json:"css"`
	Images []Image `json:"images"`
	URL    *string `json:"url"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}

	var payload generatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if payload.HTML == nil && payload.URL == nil {
		respondError(w, http.StatusUnprocessableEntity, "either html or url is required")
		return
	}

	s.mu.Lock()
	id := s.createLocked()
	doc := s.docs[id]
	if payload.HTML != nil {
		doc.HTML = *payload.HTML
	}
	doc.CSS = payload.CSS
	doc.Images = payload.Images
	if payload.URL != nil {
		doc.URL = *payload.URL
	}
	data := s.dataLocked(doc)
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, map[string]any{"data": data})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "document id must be an integer")
		return
	}

	s.mu.Lock()
	doc, ok := s.docs[id]
	var data map[string]any
	if ok {
		data = s.dataLocked(doc)
	}
	s.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no document with id %d", id))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "document id must be an integer")
		return
	}

	s.mu.Lock()
	doc, ok := s.docs[id]
	var status string
	var content []byte
	if ok {
		status = doc.Status
		content = doc.Content
	}
	s.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no document with id %d", id))
		return
	}
	if status != "completed" {
		respondError(w, http.StatusConflict, fmt.Sprintf("document is %s, not completed", status))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// dataLocked renders the wire form of a job. Callers must hold mu.
func (s *Server) dataLocked(doc *Document) map[string]any {
	return map[string]any{
		"id":           doc.ID,
		"name":         doc.Name,
		"status":       doc.Status,
		"download_url": fmt.Sprintf("%s/pdfs/%d/download", s.Server.URL, doc.ID),
		"created_at":   doc.CreatedAt.Format(time.RFC3339Nano),
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
