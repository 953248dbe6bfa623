package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/jeefy/llmmoe/internal/models"
	"github.com/jeefy/llmmoe/internal/query"
	"github.com/jeefy/llmmoe/internal/store"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	handler *query.Handler
	store   store.Store
	mux     *http.ServeMux
}

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Detail string `json:"detail"`
}

type expertInfo struct {
	Position int    `json:"position"`
	Vendor   string `json:"vendor"`
	Model    string `json:"model"`
}

func New(h *query.Handler, st store.Store) *Server {
	s := &Server{
		handler: h,
		store:   st,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the full handler chain: CORS, request logging and panic
// recovery around the route mux.
func (s *Server) Router() http.Handler {
	c := cors.New(cors.Options{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(logRequests(recoverPanics(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/query", s.handleQuery)
	s.mux.HandleFunc("/responses", s.handleResponses)
	s.mux.HandleFunc("/responses/", s.handleResponseByID)
	s.mux.HandleFunc("/experts", s.handleExperts)
	s.mux.HandleFunc("/healthz", s.handleHealth)
}

// POST /query
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	var body models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body: expected JSON {query}; "+err.Error())
		return
	}
	if body.Query == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "query: field required")
		return
	}

	// a client hanging up must not abort the vendor calls or lose the record
	resp, err := s.handler.Handle(context.WithoutCancel(r.Context()), *body.Query)
	if err != nil {
		var se *query.StorageError
		if errors.As(err, &se) {
			writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Database Error: %v", se.Err))
			return
		}
		log.Printf("Unexpected Error: %v", err)
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Unexpected Error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /responses?limit=N
func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "limit: must be an integer")
			return
		}
		limit = n
	}
	records, err := s.store.ListResponses(r.Context(), limit)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Database Error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GET /responses/{id}
func (s *Server) handleResponseByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/responses/"), "/")
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || strings.Contains(rest, "/") {
		writeDetail(w, http.StatusUnprocessableEntity, "id: must be an integer")
		return
	}
	rec, err := s.store.GetResponse(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Database Error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GET /experts
func (s *Server) handleExperts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	out := []expertInfo{}
	for i, e := range s.handler.Experts() {
		out = append(out, expertInfo{Position: i + 1, Vendor: e.Name(), Model: e.Model()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// recoverPanics is the outermost failure boundary for request handling.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("Unexpected Error: %v", rec)
				writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Unexpected Error: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s request_id=%s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond), id)
	})
}
