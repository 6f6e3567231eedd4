// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes weekboard tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/weekboard/internal/boardservice"
	"github.com/starford/weekboard/internal/codec"
)

// FormFormatURI is the resource holding FormFormatContract.
const FormFormatURI = "weekboard://form-format"

// Server wraps the MCP server with weekboard tools.
type Server struct {
	mcp *server.MCPServer
	svc *boardservice.Service
}

// New creates a new MCP server with all weekboard tools registered.
func New(svc *boardservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Weekboard",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_weeks",
		mcp.WithDescription("List every week with its position, number, title and tags. "+
			"Positions are zero-based and are what the other tools expect."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter by")),
	), s.listWeeks)

	s.mcp.AddTool(mcp.NewTool("read_week",
		mcp.WithDescription("Read one week as JSON."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based position of the week")),
	), s.readWeek)

	s.mcp.AddTool(mcp.NewTool("get_week_form",
		mcp.WithDescription("Return the editable text form of a week: tags as a comma-separated "+
			"line and links as text|url|type lines. Edit it and pass it to update_week."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based position of the week")),
	), s.getWeekForm)

	s.mcp.AddTool(mcp.NewTool("update_week",
		mcp.WithDescription("Replace the title, subtitle, description, tags and links of a week. "+
			"Omitted fields are cleared, so send every field. Read the contract first via "+
			"the get_form_contract tool or the "+FormFormatURI+" resource."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based position of the week")),
		mcp.WithString("title", mcp.Description("Week title")),
		mcp.WithString("subtitle", mcp.Description("Optional subtitle")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags, e.g. \"go, testing\"")),
		mcp.WithString("links", mcp.Description("One link per line as text|url|type; type defaults to link")),
	), s.updateWeek)

	s.mcp.AddTool(mcp.NewTool("reset_week",
		mcp.WithDescription("Reset a week to its default title and empty content. Irreversible."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based position of the week")),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true to reset")),
	), s.resetWeek)

	s.mcp.AddTool(mcp.NewTool("get_form_contract",
		mcp.WithDescription("Returns the week form contract. "+
			"Call this before updating weeks to ensure the tags and links lines parse as intended."),
	), s.getFormContract)

	s.mcp.AddResource(
		mcp.NewResource(FormFormatURI, "Week Form Contract",
			mcp.WithResourceDescription("Text format of the editable week fields."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listWeeks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	board := s.svc.Board(req.GetString("tag", ""))
	if len(board.Cards) == 0 {
		return mcp.NewToolResultText("no weeks found"), nil
	}
	var b strings.Builder
	for _, c := range board.Cards {
		fmt.Fprintf(&b, "%d\t%s\t%s", c.Index, c.Number, c.Title)
		if len(c.Tags) > 0 {
			fmt.Fprintf(&b, "\t[%s]", codec.EncodeTags(c.Tags))
		}
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) readWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	w, err := s.svc.Week(index)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(w)
}

func (s *Server) getWeekForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	w, err := s.svc.Week(index)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(codec.EncodeForm(w))
}

func (s *Server) updateWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	form := codec.Form{
		Title:       req.GetString("title", ""),
		Subtitle:    req.GetString("subtitle", ""),
		Description: req.GetString("description", ""),
		Tags:        req.GetString("tags", ""),
		Links:       req.GetString("links", ""),
	}
	res, err := s.svc.Edit(ctx, index, form)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: week %s", res.Message, res.Week.Number)), nil
}

func (s *Server) resetWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ResetWeek(ctx, index, req.GetBool("confirm", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: week %s", res.Message, res.Week.Number)), nil
}

func (s *Server) getFormContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormFormatContract), nil
}

func (s *Server) readFormFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormFormatURI,
			MIMEType: "text/markdown",
			Text:     FormFormatContract,
		},
	}, nil
}
