package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/weekboard/internal/boardservice"
	"github.com/starford/weekboard/internal/codec"
	"github.com/starford/weekboard/internal/kv"
	"github.com/starford/weekboard/internal/models"
	"github.com/starford/weekboard/internal/render"
	"github.com/starford/weekboard/internal/weeks"
)

func testServer(t *testing.T) (*Server, *kv.SQLite) {
	t.Helper()

	dbFile, err := os.CreateTemp("", "weekboard-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := kv.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	repo := weeks.New(store)
	repo.Load(context.Background())
	svc := boardservice.New(repo, render.NewNav())
	return New(svc, "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_weeks":
		result, err = srv.listWeeks(ctx, req)
	case "read_week":
		result, err = srv.readWeek(ctx, req)
	case "get_week_form":
		result, err = srv.getWeekForm(ctx, req)
	case "update_week":
		result, err = srv.updateWeek(ctx, req)
	case "reset_week":
		result, err = srv.resetWeek(ctx, req)
	case "get_form_contract":
		result, err = srv.getFormContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListWeeks(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "list_weeks", map[string]interface{}{}))
	lines := strings.Split(text, "\n")
	if len(lines) != models.DefaultCount {
		t.Fatalf("lines = %d, want %d", len(lines), models.DefaultCount)
	}
	if lines[0] != "0\t01\tWeek 1" {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestUpdateAndReadWeek(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "update_week", map[string]interface{}{
		"index": float64(2),
		"title": "Concurrency",
		"tags":  "go, channels",
		"links": "Talk|https://example.com/talk|video\njunk",
	})
	if r.IsError {
		t.Fatalf("update error: %s", resultText(r))
	}
	if text := resultText(r); text != "Changes saved successfully: week 03" {
		t.Errorf("update result = %q", text)
	}

	r = callTool(t, srv, "read_week", map[string]interface{}{"index": float64(2)})
	var w models.Week
	if err := json.Unmarshal([]byte(resultText(r)), &w); err != nil {
		t.Fatal(err)
	}
	if w.Title != "Concurrency" || len(w.Tags) != 2 || len(w.Links) != 1 || w.Links[0].Type != "video" {
		t.Errorf("week = %+v", w)
	}

	// Persisted through the SQLite store.
	reloaded := weeks.New(store)
	got := reloaded.Load(context.Background())
	if got[2].Title != "Concurrency" {
		t.Errorf("reloaded title = %q", got[2].Title)
	}
}

func TestGetWeekForm(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "update_week", map[string]interface{}{
		"index": float64(0),
		"title": "Intro",
		"tags":  "a,b",
	})

	r := callTool(t, srv, "get_week_form", map[string]interface{}{"index": float64(0)})
	var f codec.Form
	if err := json.Unmarshal([]byte(resultText(r)), &f); err != nil {
		t.Fatal(err)
	}
	if f.Number != "01" || f.Title != "Intro" || f.Tags != "a, b" {
		t.Errorf("form = %+v", f)
	}
}

func TestListWeeksByTag(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "update_week", map[string]interface{}{
		"index": float64(9),
		"title": "Tagged",
		"tags":  "special",
	})
	text := resultText(callTool(t, srv, "list_weeks", map[string]interface{}{"tag": "special"}))
	if text != "9\t10\tTagged\t[special]" {
		t.Errorf("filtered = %q", text)
	}
	text = resultText(callTool(t, srv, "list_weeks", map[string]interface{}{"tag": "missing"}))
	if text != "no weeks found" {
		t.Errorf("empty filter = %q", text)
	}
}

func TestResetWeek(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "update_week", map[string]interface{}{
		"index": float64(4),
		"title": "Custom",
	})

	r := callTool(t, srv, "reset_week", map[string]interface{}{"index": float64(4)})
	if !r.IsError {
		t.Error("expected error without confirm")
	}

	r = callTool(t, srv, "reset_week", map[string]interface{}{"index": float64(4), "confirm": true})
	if r.IsError {
		t.Fatalf("reset error: %s", resultText(r))
	}
	r = callTool(t, srv, "read_week", map[string]interface{}{"index": float64(4)})
	if !strings.Contains(resultText(r), `"title": "Week 5"`) {
		t.Errorf("after reset = %s", resultText(r))
	}
}

func TestReadWeekOutOfRange(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_week", map[string]interface{}{"index": float64(16)})
	if !r.IsError {
		t.Error("expected error for out of range index")
	}
	r = callTool(t, srv, "read_week", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing index")
	}
}

func TestGetFormContract(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_form_contract", nil))
	if !strings.Contains(text, "text|url|type") {
		t.Error("contract does not describe the links format")
	}
}
