// Package jiratest provides an in-process fake of the Jira workflow scheme
// REST surface, backed by an in-memory store. It exists so that client code
// can be exercised against realistic routing, status codes and payloads
// without a Jira instance.
package jiratest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/luizaranda/go-jira/pkg/jira/workflowscheme"
)

// RecordedRequest is the wire-level view of a request the server handled,
// kept for test assertions.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Server fakes the workflow scheme surface under /rest/api/2. Create one
// per test with NewServer and point a jira.Client at URL().
type Server struct {
	httpServer *httptest.Server

	mu       sync.Mutex
	nextID   int64
	schemes  map[string]*schemeRecord
	requests []RecordedRequest
}

type schemeRecord struct {
	scheme workflowscheme.Scheme
	draft  *workflowscheme.Scheme
}

// NewServer starts a fake server. The caller must Close it.
func NewServer() *Server {
	s := &Server{
		nextID:  10000,
		schemes: map[string]*schemeRecord{},
	}

	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/rest/api/2/workflowscheme", func(r chi.Router) {
		r.Post("/", s.createScheme)

		r.Route("/{schemeID}", func(r chi.Router) {
			r.Get("/", s.getScheme)
			r.Put("/", s.editScheme)
			r.Delete("/", s.deleteScheme)

			r.Post("/createdraft", s.createDraft)

			r.Get("/default", s.getDefault)
			r.Put("/default", s.setDefault)
			r.Delete("/default", s.removeDefault)

			r.Get("/draft", s.getDraft)
			r.Put("/draft", s.editDraft)
			r.Delete("/draft", s.deleteDraft)

			r.Get("/draft/default", s.getDraftDefault)
			r.Put("/draft/default", s.setDraftDefault)
			r.Delete("/draft/default", s.removeDraftDefault)

			r.Get("/issuetype/{issueType}", s.getIssueType)
			r.Put("/issuetype/{issueType}", s.setIssueType)
			r.Delete("/issuetype/{issueType}", s.deleteIssueType)

			r.Get("/draft/issuetype/{issueType}", s.getDraftIssueType)
			r.Put("/draft/issuetype/{issueType}", s.setDraftIssueType)
			r.Delete("/draft/issuetype/{issueType}", s.deleteDraftIssueType)
		})
	})

	s.httpServer = httptest.NewServer(r)
	return s
}

// URL returns the base URL of the fake instance, suitable for
// jira.Config.BaseURL.
func (s *Server) URL() string { return s.httpServer.URL }

// Close shuts the server down.
func (s *Server) Close() { s.httpServer.Close() }

// Requests returns a copy of every request handled so far, oldest first.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recently handled request. It panics if the
// server handled none.
func (s *Server) LastRequest() RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

// Seed stores a scheme under the given id, replacing any existing record.
// It returns the server so seeding can be chained during test setup.
func (s *Server) Seed(id string, scheme workflowscheme.Scheme) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemes[id] = &schemeRecord{scheme: scheme}
	return s
}

// SeedDraft stores a draft for an already seeded scheme.
func (s *Server) SeedDraft(id string, draft workflowscheme.Scheme) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.schemes[id]; ok {
		draft.Draft = true
		rec.draft = &draft
	}
	return s
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) createScheme(w http.ResponseWriter, r *http.Request) {
	var scheme workflowscheme.Scheme
	if !decode(w, r, &scheme) {
		return
	}

	s.mu.Lock()
	s.nextID++
	scheme.ID = s.nextID
	s.schemes[strconv.FormatInt(scheme.ID, 10)] = &schemeRecord{scheme: scheme}
	s.mu.Unlock()

	respond(w, http.StatusCreated, scheme)
}

func (s *Server) getScheme(w http.ResponseWriter, r *http.Request) {
	s.withScheme(w, r, func(rec *schemeRecord) {
		if r.URL.Query().Get("returnDraftIfExists") == "true" && rec.draft != nil {
			respond(w, http.StatusOK, rec.draft)
			return
		}
		respond(w, http.StatusOK, rec.scheme)
	})
}

func (s *Server) editScheme(w http.ResponseWriter, r *http.Request) {
	var scheme workflowscheme.Scheme
	if !decode(w, r, &scheme) {
		return
	}

	s.withScheme(w, r, func(rec *schemeRecord) {
		scheme.ID = rec.scheme.ID
		rec.scheme = scheme
		respond(w, http.StatusOK, rec.scheme)
	})
}

func (s *Server) deleteScheme(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "schemeID")

	s.mu.Lock()
	_, ok := s.schemes[id]
	delete(s.schemes, id)
	s.mu.Unlock()

	if !ok {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createDraft(w http.ResponseWriter, r *http.Request) {
	s.withScheme(w, r, func(rec *schemeRecord) {
		draft := rec.scheme
		draft.Draft = true
		rec.draft = &draft
		respond(w, http.StatusCreated, draft)
	})
}

func (s *Server) getDefault(w http.ResponseWriter, r *http.Request) {
	s.withScheme(w, r, func(rec *schemeRecord) {
		scheme := rec.scheme
		if r.URL.Query().Get("returnDraftIfExists") == "true" && rec.draft != nil {
			scheme = *rec.draft
		}
		respond(w, http.StatusOK, workflowscheme.DefaultWorkflow{Workflow: scheme.DefaultWorkflow})
	})
}

func (s *Server) setDefault(w http.ResponseWriter, r *http.Request) {
	var def workflowscheme.DefaultWorkflow
	if !decode(w, r, &def) {
		return
	}

	s.withScheme(w, r, func(rec *schemeRecord) {
		rec.scheme.DefaultWorkflow = def.Workflow
		respond(w, http.StatusOK, rec.scheme)
	})
}

func (s *Server) removeDefault(w http.ResponseWriter, r *http.Request) {
	s.withScheme(w, r, func(rec *schemeRecord) {
		rec.scheme.DefaultWorkflow = ""
		respond(w, http.StatusOK, rec.scheme)
	})
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	s.withDraft(w, r, func(rec *schemeRecord) {
		respond(w, http.StatusOK, rec.draft)
	})
}

func (s *Server) editDraft(w http.ResponseWriter, r *http.Request) {
	var draft workflowscheme.Scheme
	if !decode(w, r, &draft) {
		return
	}

	s.withDraft(w, r, func(rec *schemeRecord) {
		draft.ID = rec.draft.ID
		draft.Draft = true
		rec.draft = &draft
		respond(w, http.StatusOK, draft)
	})
}

func (s *Server) deleteDraft(w http.ResponseWriter, r *http.Request) {
	s.withDraft(w, r, func(rec *schemeRecord) {
		rec.draft = nil
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) getDraftDefault(w http.ResponseWriter, r *http.Request) {
	s.withDraft(w, r, func(rec *schemeRecord) {
		respond(w, http.StatusOK, workflowscheme.DefaultWorkflow{Workflow: rec.draft.DefaultWorkflow})
	})
}

func (s *Server) setDraftDefault(w http.ResponseWriter, r *http.Request) {
	var def workflowscheme.DefaultWorkflow
	if !decode(w, r, &def) {
		return
	}

	s.withDraft(w, r, func(rec *schemeRecord) {
		rec.draft.DefaultWorkflow = def.Workflow
		respond(w, http.StatusOK, rec.draft)
	})
}

func (s *Server) removeDraftDefault(w http.ResponseWriter, r *http.Request) {
	s.withDraft(w, r, func(rec *schemeRecord) {
		rec.draft.DefaultWorkflow = ""
		respond(w, http.StatusOK, rec.draft)
	})
}

func (s *Server) getIssueType(w http.ResponseWriter, r *http.Request) {
	issueType := chi.URLParam(r, "issueType")

	s.withScheme(w, r, func(rec *schemeRecord) {
		scheme := rec.scheme
		if r.URL.Query().Get("returnDraftIfExists") == "true" && rec.draft != nil {
			scheme = *rec.draft
		}

		workflow, ok := scheme.IssueTypeMappings[issueType]
		if !ok {
			notFound(w)
			return
		}

		respond(w, http.StatusOK, workflowscheme.IssueTypeMapping{IssueType: issueType, Workflow: workflow})
	})
}

func (s *Server) setIssueType(w http.ResponseWriter, r *http.Request) {
	var mapping workflowscheme.IssueTypeMapping
	if !decode(w, r, &mapping) {
		return
	}

	issueType := chi.URLParam(r, "issueType")

	s.withScheme(w, r, func(rec *schemeRecord) {
		if rec.scheme.IssueTypeMappings == nil {
			rec.scheme.IssueTypeMappings = map[string]string{}
		}
		rec.scheme.IssueTypeMappings[issueType] = mapping.Workflow
		respond(w, http.StatusOK, rec.scheme)
	})
}

func (s *Server) deleteIssueType(w http.ResponseWriter, r *http.Request) {
	issueType := chi.URLParam(r, "issueType")

	s.withScheme(w, r, func(rec *schemeRecord) {
		delete(rec.scheme.IssueTypeMappings, issueType)
		respond(w, http.StatusOK, rec.scheme)
	})
}

func (s *Server) getDraftIssueType(w http.ResponseWriter, r *http.Request) {
	issueType := chi.URLParam(r, "issueType")

	s.withDraft(w, r, func(rec *schemeRecord) {
		workflow, ok := rec.draft.IssueTypeMappings[issueType]
		if !ok {
			notFound(w)
			return
		}
		respond(w, http.StatusOK, workflowscheme.IssueTypeMapping{IssueType: issueType, Workflow: workflow})
	})
}

func (s *Server) setDraftIssueType(w http.ResponseWriter, r *http.Request) {
	var mapping workflowscheme.IssueTypeMapping
	if !decode(w, r, &mapping) {
		return
	}

	issueType := chi.URLParam(r, "issueType")

	s.withDraft(w, r, func(rec *schemeRecord) {
		if rec.draft.IssueTypeMappings == nil {
			rec.draft.IssueTypeMappings = map[string]string{}
		}
		rec.draft.IssueTypeMappings[issueType] = mapping.Workflow
		respond(w, http.StatusOK, rec.draft)
	})
}

func (s *Server) deleteDraftIssueType(w http.ResponseWriter, r *http.Request) {
	issueType := chi.URLParam(r, "issueType")

	s.withDraft(w, r, func(rec *schemeRecord) {
		delete(rec.draft.IssueTypeMappings, issueType)
		respond(w, http.StatusOK, rec.draft)
	})
}

func (s *Server) withScheme(w http.ResponseWriter, r *http.Request, fn func(*schemeRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.schemes[chi.URLParam(r, "schemeID")]
	if !ok {
		notFound(w)
		return
	}

	fn(rec)
}

func (s *Server) withDraft(w http.ResponseWriter, r *http.Request, fn func(*schemeRecord)) {
	s.withScheme(w, r, func(rec *schemeRecord) {
		if rec.draft == nil {
			notFound(w)
			return
		}
		fn(rec)
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond(w, http.StatusBadRequest, map[string][]string{"errorMessages": {err.Error()}})
		return false
	}
	return true
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	respond(w, http.StatusNotFound, map[string][]string{"errorMessages": {"workflow scheme not found"}})
}
