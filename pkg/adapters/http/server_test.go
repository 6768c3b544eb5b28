package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/pkg/registry"
)

func accountSchema() scheme.Field {
	return &scheme.Structure{
		Fields: map[string]scheme.Field{
			"name": &scheme.Text{Nonempty: true},
			"age":  &scheme.Integer{Minimum: scheme.Int64Ptr(0)},
		},
	}
}

func newTestHandler(t *testing.T) (http.Handler, *registry.Registry) {
	t.Helper()
	service := registry.New()
	return NewHandler(service), service
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := doJSON(t, handler, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := doJSON(t, handler, "GET", "/info", nil)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "scheme-http", resp["app"])
	assert.NotEmpty(t, resp["version"])
}

func TestSchemaLifecycle(t *testing.T) {
	handler, _ := newTestHandler(t)
	description := accountSchema().Describe()

	// First put creates version 1.
	rr := doJSON(t, handler, "PUT", "/schemas/account", description)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "account", created["name"])
	assert.Equal(t, float64(1), created["version"])

	// Replacing bumps the version.
	rr = doJSON(t, handler, "PUT", "/schemas/account", description)
	require.Equal(t, http.StatusOK, rr.Code)

	var replaced map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &replaced))
	assert.Equal(t, float64(2), replaced["version"])

	rr = doJSON(t, handler, "GET", "/schemas", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var listed map[string][]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.Equal(t, []string{"account"}, listed["schemas"])

	rr = doJSON(t, handler, "GET", "/schemas/account", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var fetched map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fetched))
	stored, ok := fetched["description"].(map[string]any)
	require.True(t, ok, "document should embed the description")
	assert.Equal(t, "structure", stored["__type__"])

	rr = doJSON(t, handler, "DELETE", "/schemas/account", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, handler, "GET", "/schemas/account", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPutSchemaRejectsBadDescription(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := doJSON(t, handler, "PUT", "/schemas/bogus", map[string]any{"__type__": "teleporter"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest("PUT", "/schemas/bogus", strings.NewReader("{not json"))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestValidateValue(t *testing.T) {
	handler, service := newTestHandler(t)
	_, err := service.Register(context.Background(), "account", accountSchema())
	require.NoError(t, err)

	// A conforming payload comes back in canonical form.
	rr := doJSON(t, handler, "POST", "/schemas/account/validate", map[string]any{
		"name": "alice",
		"age":  30,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["valid"])
	value, ok := resp["value"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", value["name"])
	assert.Equal(t, float64(30), value["age"])

	// A failing payload returns the error tree.
	rr = doJSON(t, handler, "POST", "/schemas/account/validate", map[string]any{
		"age": -1,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	resp = nil
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["valid"])
	assert.NotEmpty(t, resp["errors"])

	errorsJSON, err := json.Marshal(resp["errors"])
	require.NoError(t, err)
	assert.Contains(t, string(errorsJSON), `"token":"minimum"`)
	assert.Contains(t, string(errorsJSON), `"token":"required"`)
}

func TestValidateUnknownSchema(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := doJSON(t, handler, "POST", "/schemas/missing/validate", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOversizedBodyRejected(t *testing.T) {
	handler, service := newTestHandler(t)
	_, err := service.Register(context.Background(), "account", accountSchema())
	require.NoError(t, err)

	body := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest("POST", "/schemas/account/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestGetOpenAPI(t *testing.T) {
	handler, service := newTestHandler(t)
	_, err := service.Register(context.Background(), "account", accountSchema())
	require.NoError(t, err)

	rr := doJSON(t, handler, "GET", "/openapi.json", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `"openapi":"3.0.3"`)
	assert.Contains(t, body, "/schemas/account/validate")

	rr = doJSON(t, handler, "GET", "/swagger", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "swagger-ui")
}

// watchingService feeds a canned change stream to the events endpoint.
type watchingService struct {
	*registry.Registry
	changes chan string
}

func (s watchingService) Watch(ctx context.Context) (<-chan string, error) {
	return s.changes, nil
}

func TestWatchSchemasStreams(t *testing.T) {
	changes := make(chan string, 2)
	changes <- "account"
	changes <- "profile"
	close(changes)

	handler := NewHandler(watchingService{Registry: registry.New(), changes: changes})

	// The handler returns once the change feed closes, so the recorded
	// body holds the full stream.
	req := httptest.NewRequest("GET", "/events", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))

	body := rr.Body.String()
	assert.Contains(t, body, "event: ping\ndata: connected\n\n")
	assert.Contains(t, body, "event: schema\ndata: account\n\n")
	assert.Contains(t, body, "event: schema\ndata: profile\n\n")
}

func TestWatchSchemasUnsupportedStore(t *testing.T) {
	handler, _ := newTestHandler(t)

	// The default memory store cannot watch.
	rr := doJSON(t, handler, "GET", "/events", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestConvert(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := doJSON(t, handler, "POST", "/convert", ConvertRequest{
		From:    "json",
		To:      "yaml",
		Content: `{"name": "alice", "tags": ["a", "b"]}`,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "application/x-yaml", resp["mimetype"])
	assert.Contains(t, resp["content"], "name: alice")

	rr = doJSON(t, handler, "POST", "/convert", ConvertRequest{
		From:    "json",
		To:      "carrier-pigeon",
		Content: `{}`,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
