package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/pkg/registry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	service := registry.New()
	_, err := service.Register(context.Background(), "account", &scheme.Structure{
		Fields: map[string]scheme.Field{
			"name": &scheme.Text{Nonempty: true},
			"age":  &scheme.Integer{Minimum: scheme.Int64Ptr(0)},
		},
	})
	require.NoError(t, err)

	return NewServer(service)
}

func TestHandleValidate(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleValidate(ctx, mcp.CallToolRequest{}, map[string]any{
		"schema": "account",
		"value":  `{"name": "alice", "age": 30}`,
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)

	value, ok := resp.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", value["name"])
	assert.Equal(t, int64(30), value["age"])
	assert.Nil(t, resp.Errors)
}

func TestHandleValidateYAML(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"schema": "account",
		"value":  "name: alice\nage: 30\n",
		"format": "yaml",
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
}

func TestHandleValidateFailure(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"schema": "account",
		"value":  `{"age": -1}`,
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Nil(t, resp.Value)

	tree, err := json.Marshal(resp.Errors)
	require.NoError(t, err)
	assert.Contains(t, string(tree), `"token":"minimum"`)
}

func TestHandleValidateUnknownSchema(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"schema": "missing",
		"value":  `{}`,
	})
	assert.Error(t, err)
}

func TestHandleRegisterAndDescribe(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	registered, err := s.handleRegister(ctx, mcp.CallToolRequest{}, map[string]any{
		"schema":      "tag",
		"description": `{"__type__": "text", "min_length": 1}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "tag", registered.Name)
	assert.Equal(t, 1, registered.Version)

	described, err := s.handleDescribe(ctx, mcp.CallToolRequest{}, map[string]any{
		"schema": "tag",
	})
	require.NoError(t, err)
	assert.Equal(t, "text", described.Description["__type__"])

	_, err = s.handleRegister(ctx, mcp.CallToolRequest{}, map[string]any{
		"schema":      "broken",
		"description": `{"__type__": "teleporter"}`,
	})
	assert.Error(t, err)
}
