// Package http serves the schema registry as a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/format"
	"github.com/aretw0/scheme/pkg/openapi"
	"github.com/aretw0/scheme/pkg/ports"
)

// Service defines the registry surface the server exposes.
type Service interface {
	RegisterDescription(ctx context.Context, name string, description map[string]any) (*ports.Document, error)
	Describe(ctx context.Context, name string) (*ports.Document, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Validate(ctx context.Context, name string, value any) (any, error)
	Serialize(ctx context.Context, name string, value any, formatName string) (any, error)
	Watch(ctx context.Context) (<-chan string, error)
}

// Server handles the schema API requests.
type Server struct {
	Service Service

	validations *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	metrics     *prometheus.Registry
}

// NewHandler creates a new HTTP handler for the registry service.
// Responses are gzip-compressed when the client accepts it.
func NewHandler(service Service) http.Handler {
	server := &Server{
		Service: service,
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheme_validations_total",
				Help: "Total number of payload validations",
			},
			[]string{"schema", "outcome"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "scheme_validation_duration_seconds",
				Help: "Duration of payload validations",
			},
			[]string{"schema"},
		),
		metrics: prometheus.NewRegistry(),
	}
	server.metrics.MustRegister(server.validations, server.durations)

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(server.metrics, promhttp.HandlerOpts{}))

	// Swagger UI
	r.Get("/openapi.json", server.GetOpenAPI)
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Get("/schemas", server.ListSchemas)
	r.Get("/schemas/{name}", server.GetSchema)
	r.Put("/schemas/{name}", server.PutSchema)
	r.Delete("/schemas/{name}", server.DeleteSchema)
	r.Post("/schemas/{name}/validate", server.ValidateValue)
	r.Post("/convert", server.Convert)
	r.Get("/events", server.WatchSchemas)

	return gzhttp.GzipHandler(enableCORS(r))
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// maxBodyBytes bounds request bodies; oversized payloads are rejected
// rather than truncated so the outcome is deterministic.
const maxBodyBytes = 1 << 20

// decodeBody decodes the request body as JSON into value, writing the
// error response itself when decoding fails.
func decodeBody(w http.ResponseWriter, r *http.Request, value any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(value); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("invalid request body", "path", r.URL.Path, "error", err)
		return false
	}
	return true
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Scheme API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.json',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "scheme-http",
		"version": scheme.Version,
	})
}

// GetOpenAPI handles the GET /openapi.json request, describing the
// registered schemas and their validate operations.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	names, err := s.Service.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		slog.Error("openapi: list schemas failed", "error", err)
		return
	}

	documents := make([]*ports.Document, 0, len(names))
	for _, name := range names {
		document, err := s.Service.Describe(r.Context(), name)
		if err != nil {
			http.Error(w, fmt.Sprintf("Describe error: %v", err), http.StatusInternalServerError)
			slog.Error("openapi: describe schema failed", "schema", name, "error", err)
			return
		}
		documents = append(documents, document)
	}

	doc, err := openapi.Document("Scheme Registry API", documents)
	if err != nil {
		http.Error(w, fmt.Sprintf("OpenAPI error: %v", err), http.StatusInternalServerError)
		slog.Error("openapi: document build failed", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ListSchemas handles the GET /schemas request.
func (s *Server) ListSchemas(w http.ResponseWriter, r *http.Request) {
	names, err := s.Service.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		slog.Error("list schemas failed", "error", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"schemas": names})
}

// GetSchema handles the GET /schemas/{name} request.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	document, err := s.Service.Describe(r.Context(), name)
	if err != nil {
		if errors.Is(err, ports.ErrSchemaNotFound) {
			http.Error(w, fmt.Sprintf("Schema %q not found", name), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Describe error: %v", err), http.StatusInternalServerError)
		slog.Error("describe schema failed", "schema", name, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, document)
}

// PutSchema handles the PUT /schemas/{name} request. The body is a
// schema description as produced by Describe.
func (s *Server) PutSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var description map[string]any
	if !decodeBody(w, r, &description) {
		return
	}

	document, err := s.Service.RegisterDescription(r.Context(), name, description)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid schema description: %v", err), http.StatusBadRequest)
		slog.Warn("put schema: rejected description", "schema", name, "error", err)
		return
	}

	status := http.StatusOK
	if document.Version == 1 {
		status = http.StatusCreated
	}
	writeJSON(w, status, document)
}

// DeleteSchema handles the DELETE /schemas/{name} request.
func (s *Server) DeleteSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := s.Service.Delete(r.Context(), name); err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		slog.Error("delete schema failed", "schema", name, "error", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ValidateValue handles the POST /schemas/{name}/validate request. The
// body is the serialized value to validate. Validation failures return
// 422 with the error tree; valid payloads return their canonical
// serialized form.
func (s *Server) ValidateValue(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var value any
	if !decodeBody(w, r, &value) {
		return
	}

	start := time.Now()
	processed, err := s.Service.Validate(r.Context(), name, value)
	s.durations.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, ports.ErrSchemaNotFound) {
			http.Error(w, fmt.Sprintf("Schema %q not found", name), http.StatusNotFound)
			return
		}
		if validation, ok := scheme.AsValidationError(err); ok {
			s.validations.WithLabelValues(name, "invalid").Inc()
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"valid":  false,
				"errors": validation.Serialize(),
			})
			return
		}
		s.validations.WithLabelValues(name, "error").Inc()
		http.Error(w, fmt.Sprintf("Validate error: %v", err), http.StatusInternalServerError)
		slog.Error("validate failed", "schema", name, "error", err)
		return
	}

	serialized, err := s.Service.Serialize(r.Context(), name, processed, "")
	if err != nil {
		http.Error(w, fmt.Sprintf("Serialize error: %v", err), http.StatusInternalServerError)
		slog.Error("validate: reserialize failed", "schema", name, "error", err)
		return
	}

	s.validations.WithLabelValues(name, "valid").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"value": serialized,
	})
}

// ConvertRequest is the body of POST /convert.
type ConvertRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Content string `json:"content"`
}

// Convert handles the POST /convert request, transcoding content
// between two registered formats.
func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	var body ConvertRequest
	if !decodeBody(w, r, &body) {
		return
	}

	target, err := format.Resolve(body.To)
	if err != nil {
		http.Error(w, fmt.Sprintf("Convert error: %v", err), http.StatusBadRequest)
		return
	}

	decoded, err := format.Unserialize(body.From, body.Content)
	if err != nil {
		http.Error(w, fmt.Sprintf("Convert error: %v", err), http.StatusBadRequest)
		return
	}

	encoded, err := format.Serialize(body.To, decoded)
	if err != nil {
		http.Error(w, fmt.Sprintf("Convert error: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"content":  encoded,
		"mimetype": target.Mimetype(),
	})
}

// WatchSchemas handles the GET /events request (SSE). The names of
// schemas changing in the backing store stream as events until the
// client disconnects.
func (s *Server) WatchSchemas(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		slog.Error("watch schemas: streaming not supported")
		return
	}

	changes, err := s.Service.Watch(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case name, ok := <-changes:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: schema\ndata: %s\n\n", name)
			flusher.Flush()
		}
	}
}
