package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/config"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/descriptions"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/filing"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/store"
)

// DefaultListLimit caps filing_list_stored when no limit is given
const DefaultListLimit = 50

// Extractor produces filings from announcements or PDF bytes
type Extractor interface {
	Process(ctx context.Context, announcementURL string) (*filing.Filing, error)
	ProcessPDF(ctx context.Context, data []byte, pdfURL, symbol string) (*filing.Filing, error)
}

// RecordLister reads stored records
type RecordLister interface {
	List(ctx context.Context, q store.Query) ([]store.Row, error)
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	extractor Extractor
	records   RecordLister
	mcpServer *server.MCPServer
	logger    *log.Logger
}

// NewServer creates a new MCP server instance. records may be nil when
// storage is disabled.
func NewServer(cfg *config.Config, extractor Extractor, records RecordLister, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		extractor: extractor,
		records:   records,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractURLTool := mcp.NewTool(
		"filing_extract_url",
		mcp.WithDescription(descriptions.FilingExtractURLDescription),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("SGX announcement URL"),
		),
	)
	s.mcpServer.AddTool(extractURLTool, s.handleExtractURL)

	extractFileTool := mcp.NewTool(
		"filing_extract_file",
		mcp.WithDescription(descriptions.FilingExtractFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the filing PDF"),
		),
		mcp.WithString("symbol",
			mcp.Description("Issuer symbol, looked up from the filing when empty"),
		),
	)
	s.mcpServer.AddTool(extractFileTool, s.handleExtractFile)

	listStoredTool := mcp.NewTool(
		"filing_list_stored",
		mcp.WithDescription(descriptions.FilingListStoredDescription),
		mcp.WithString("symbol",
			mcp.Description("Only records of this issuer symbol"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum records to return (default %d)", DefaultListLimit)),
		),
	)
	s.mcpServer.AddTool(listStoredTool, s.handleListStored)
}

// Handler functions
func (s *Server) handleExtractURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	f, err := s.extractor.Process(ctx, url)
	return s.filingResult(f, err)
}

func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	symbol := stringArg(request, "symbol")

	info, err := os.Stat(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot access %s: %v", path, err)), nil
	}
	if info.IsDir() {
		return mcp.NewToolResultError(fmt.Sprintf("%s is a directory", path)), nil
	}
	if info.Size() > s.config.MaxPDFSize {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", info.Size(), s.config.MaxPDFSize)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read %s: %v", path, err)), nil
	}

	f, err := s.extractor.ProcessPDF(ctx, data, path, symbol)
	return s.filingResult(f, err)
}

func (s *Server) handleListStored(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.records == nil {
		return mcp.NewToolResultError("storage is disabled (no database configured)"), nil
	}

	q := store.Query{Symbol: stringArg(request, "symbol"), Limit: DefaultListLimit}
	if limit, ok := numberArg(request, "limit"); ok {
		if limit < 1 {
			return mcp.NewToolResultError("limit must be at least 1"), nil
		}
		q.Limit = limit
	}

	rows, err := s.records.List(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		if q.Symbol != "" {
			return mcp.NewToolResultText(fmt.Sprintf("No stored records for %s", q.Symbol)), nil
		}
		return mcp.NewToolResultText("No stored records"), nil
	}
	return jsonResult(fmt.Sprintf("Found %d stored record(s)", len(rows)), rows)
}

// filingResult renders an extraction outcome. Exclusions are a normal
// answer, other failures a tool error.
func (s *Server) filingResult(f *filing.Filing, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if filing.IsExcluded(err) {
			return mcp.NewToolResultText(fmt.Sprintf("Filing excluded: %v", err)), nil
		}
		s.logger.Printf("Extraction failed: %v", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if f == nil || len(f.Records) == 0 {
		return mcp.NewToolResultText("No transactions found in filing"), nil
	}
	return jsonResult(fmt.Sprintf("Extracted %d record(s) for %s from %s", len(f.Records), symbolOrUnknown(f.Symbol), f.URL), f)
}

func jsonResult(header string, v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(header + "\n\n" + string(data)), nil
}

func symbolOrUnknown(symbol string) string {
	if symbol == "" {
		return "unknown symbol"
	}
	return symbol
}

func stringArg(request mcp.CallToolRequest, key string) string {
	if v, ok := request.GetArguments()[key].(string); ok {
		return v
	}
	return ""
}

// numberArg reads an integer argument, which JSON delivers as float64
func numberArg(request mcp.CallToolRequest, key string) (int, bool) {
	switch v := request.GetArguments()[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Run serves the tools over stdio until the input closes
func (s *Server) Run(_ context.Context) error {
	if s.config.IsDebug() {
		s.logger.Printf("Starting %s %s in stdio mode", s.config.ServerName, s.config.Version)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
