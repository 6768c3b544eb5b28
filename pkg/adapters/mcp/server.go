// Package mcp exposes the schema registry over the Model Context
// Protocol, so agent tooling can register schemas and validate values.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/format"
	"github.com/aretw0/scheme/pkg/ports"
)

// SchemaResponse describes a stored schema and provides a unified
// structure across adapters.
type SchemaResponse struct {
	Name        string         `json:"name" jsonschema_description:"Registered schema name"`
	Version     int            `json:"version" jsonschema_description:"Monotonic version, bumped on every update"`
	Description map[string]any `json:"description" jsonschema_description:"Portable field description"`
	UpdatedAt   time.Time      `json:"updated_at" jsonschema_description:"Time of the last update"`
}

// ValidationResponse aligns with the HTTP validate endpoint so clients
// see the same result shape on every transport.
type ValidationResponse struct {
	Valid  bool `json:"valid" jsonschema_description:"Whether the value conforms to the schema"`
	Value  any  `json:"value,omitempty" jsonschema_description:"Canonical serialized form of a valid value"`
	Errors any  `json:"errors,omitempty" jsonschema_description:"Serialized error tree of an invalid value"`
}

// Service defines the registry surface the MCP server exposes.
type Service interface {
	RegisterDescription(ctx context.Context, name string, description map[string]any) (*ports.Document, error)
	Describe(ctx context.Context, name string) (*ports.Document, error)
	List(ctx context.Context) ([]string, error)
	Validate(ctx context.Context, name string, value any) (any, error)
	Serialize(ctx context.Context, name string, value any, formatName string) (any, error)
}

// Server wraps the schema registry and exposes it as an MCP Server.
type Server struct {
	service   Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(service Service) *Server {
	s := &Server{
		service:   service,
		mcpServer: server.NewMCPServer("scheme-mcp", strings.TrimSpace(scheme.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("CORS Middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: validate_value
	validateTool := mcp.NewTool("validate_value",
		mcp.WithDescription("Validate a serialized value against a registered schema and return its canonical form."),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Name of the registered schema")),
		mcp.WithString("value", mcp.Required(), mcp.Description("The value to validate, as serialized text")),
		mcp.WithString("format", mcp.Description("Serialization format of value: json, yaml or urlencoded (default json)")),
		mcp.WithOutputSchema[ValidationResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: describe_schema
	describeTool := mcp.NewTool("describe_schema",
		mcp.WithDescription("Get the stored description of a registered schema."),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Name of the registered schema")),
		mcp.WithOutputSchema[SchemaResponse](),
	)
	s.mcpServer.AddTool(describeTool, mcp.NewStructuredToolHandler(s.handleDescribe))

	// TOOL: register_schema
	registerTool := mcp.NewTool("register_schema",
		mcp.WithDescription("Register a schema from a portable description, bumping its version if it already exists."),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Name to register the schema under")),
		mcp.WithString("description", mcp.Required(), mcp.Description("JSON object describing the schema fields")),
		mcp.WithOutputSchema[SchemaResponse](),
	)
	s.mcpServer.AddTool(registerTool, mcp.NewStructuredToolHandler(s.handleRegister))

	// TOOL: list_schemas
	s.mcpServer.AddTool(mcp.NewTool("list_schemas",
		mcp.WithDescription("List the names of every registered schema."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := s.service.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(names)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidationResponse, error) {
	name, _ := args["schema"].(string)
	raw, _ := args["value"].(string)

	formatName, _ := args["format"].(string)
	if formatName == "" {
		formatName = "json"
	}

	value, err := format.Unserialize(formatName, raw)
	if err != nil {
		return ValidationResponse{}, fmt.Errorf("value rejected: %w", err)
	}

	processed, err := s.service.Validate(ctx, name, value)
	if err != nil {
		if validation, ok := scheme.AsValidationError(err); ok {
			return ValidationResponse{Valid: false, Errors: validation.Serialize()}, nil
		}
		return ValidationResponse{}, fmt.Errorf("validate failed: %w", err)
	}

	serialized, err := s.service.Serialize(ctx, name, processed, "")
	if err != nil {
		return ValidationResponse{}, fmt.Errorf("serialize failed: %w", err)
	}

	return ValidationResponse{Valid: true, Value: serialized}, nil
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SchemaResponse, error) {
	name, _ := args["schema"].(string)

	document, err := s.service.Describe(ctx, name)
	if err != nil {
		return SchemaResponse{}, fmt.Errorf("describe failed: %w", err)
	}

	return schemaResponse(document), nil
}

func (s *Server) handleRegister(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SchemaResponse, error) {
	name, _ := args["schema"].(string)
	raw, _ := args["description"].(string)

	var description map[string]any
	if err := json.Unmarshal([]byte(raw), &description); err != nil {
		return SchemaResponse{}, fmt.Errorf("description rejected: %w", err)
	}

	document, err := s.service.RegisterDescription(ctx, name, description)
	if err != nil {
		return SchemaResponse{}, fmt.Errorf("register failed: %w", err)
	}

	slog.Info("MCP register_schema", "schema", name, "version", document.Version)
	return schemaResponse(document), nil
}

func schemaResponse(document *ports.Document) SchemaResponse {
	return SchemaResponse{
		Name:        document.Name,
		Version:     document.Version,
		Description: document.Description,
		UpdatedAt:   document.UpdatedAt,
	}
}

func (s *Server) registerResources() {
	// EXPOSE: scheme://schemas
	s.mcpServer.AddResource(mcp.NewResource("scheme://schemas", "Registered Schemas",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.service.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list schemas: %w", err)
		}

		documents := make(map[string]*ports.Document, len(names))
		for _, name := range names {
			document, err := s.service.Describe(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("failed to describe schema %q: %w", name, err)
			}
			documents[name] = document
		}
		jsonBytes, _ := json.Marshal(documents)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "scheme://schemas",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
