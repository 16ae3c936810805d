package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/vfxbridge"
	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/internal/validator"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
)

//go:embed openapi.yaml
var rawSpec []byte

// maxBody bounds a request body.
const maxBody = 8 << 20

// Executor runs actions. *vfxbridge.Bridge implements it.
type Executor = ports.ActionEngine

var loadSpec = sync.OnceValues(func() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
})

// Spec returns the parsed, validated OpenAPI document served at /openapi.yaml.
func Spec() (*openapi3.T, error) {
	return loadSpec()
}

// Server serves the action API.
type Server struct {
	Exec    Executor
	Streams *StreamManager

	params  *openapi3.Schema
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates the HTTP handler for exec.
func NewHandler(exec Executor, opts ...Option) (http.Handler, error) {
	doc, err := Spec()
	if err != nil {
		return nil, err
	}
	schema, err := paramsSchema(doc)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Exec:    exec,
		Streams: NewStreamManager(),
		params:  schema,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/actions", s.ListActions)
		r.Post("/actions/{action}", s.ExecuteAction)
		r.Get("/events", s.SubscribeEvents)
	})
	return r, nil
}

func paramsSchema(doc *openapi3.T) (*openapi3.Schema, error) {
	item := doc.Paths.Find("/v1/actions/{action}")
	if item == nil || item.Post == nil || item.Post.RequestBody == nil || item.Post.RequestBody.Value == nil {
		return nil, errors.New("openapi document has no executeAction request body")
	}
	mt := item.Post.RequestBody.Value.Content.Get("application/json")
	if mt == nil || mt.Schema == nil || mt.Schema.Value == nil {
		return nil, errors.New("openapi document has no executeAction schema")
	}
	return mt.Schema.Value, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>vfxbridge API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// ExecuteAction handles POST /v1/actions/{action}. The body is the action's
// parameter object; the response is always a Result envelope.
func (s *Server) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	params, err := s.decodeParams(r)
	if err != nil {
		s.logger.Warn("ExecuteAction: invalid request body", "action", action, "error", err)
		res := domain.Fail(domain.CodeValidation, err.Error(), nil)
		writeJSON(w, http.StatusBadRequest, res, s.logger)
		return
	}

	res := s.Exec.Execute(r.Context(), action, params)

	if path, ok := assetPath(params); ok {
		if payload, err := json.Marshal(Event{Action: action, Path: path, Result: res}); err == nil {
			s.Streams.Broadcast(path, string(payload))
		}
	}
	writeJSON(w, StatusFor(res), res, s.logger)
}

func (s *Server) decodeParams(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > maxBody {
		return nil, errors.New("request body too large")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return map[string]any{}, nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	params, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("request body must be a JSON object")
	}
	if err := s.params.VisitJSON(v); err != nil {
		return nil, fmt.Errorf("request body does not match schema: %w", err)
	}
	return params, nil
}

// StatusFor maps a Result to the HTTP status it is served with.
func StatusFor(res domain.Result) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.ErrorCode {
	case domain.CodeValidation, domain.CodeUnknownAction, domain.CodeMissingAction:
		return http.StatusBadRequest
	case domain.CodeNotFound, domain.CodeAssetNotFound:
		return http.StatusNotFound
	case domain.CodeResolution, domain.CodeUnsupportedPipeline:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ListActions handles GET /v1/actions.
func (s *Server) ListActions(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Actions []string          `json:"actions"`
		Aliases map[string]string `json:"aliases"`
	}{
		Actions: s.Exec.Actions(),
		Aliases: s.Exec.Aliases(),
	}
	writeJSON(w, http.StatusOK, resp, s.logger)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}

	resp := map[string]string{
		"app":              "vfxbridge-http",
		"version":          strings.TrimSpace(vfxbridge.Version),
		"api_version":      apiVersion,
		"envelope_version": domain.Version,
	}
	writeJSON(w, http.StatusOK, resp, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

// assetPath returns the normalized asset path addressed by params.
func assetPath(params map[string]any) (string, bool) {
	raw, ok := params["path"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	path, err := validator.NormalizePath(raw)
	if err != nil {
		return "", false
	}
	return path, true
}
