package mcp

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/medira/billforge/render"
	"github.com/medira/billforge/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return NewServerWithIO(st, render.NewRenderer(), nil, nil, nil)
}

func sendRequest(t *testing.T, s *Server, method string, id int, params interface{}) jsonrpcResponse {
	t.Helper()

	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}

	reqBytes, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	reqBytes = append(reqBytes, '\n')

	var output bytes.Buffer
	s.input = bytes.NewReader(reqBytes)
	s.output = &output

	s.Run()

	var resp jsonrpcResponse
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling response %q: %v", output.String(), err)
	}
	return resp
}

func callTool(t *testing.T, s *Server, id int, name string, args map[string]interface{}) string {
	t.Helper()

	resp := sendRequest(t, s, "tools/call", id, map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error: %v", name, resp.Error.Message)
	}
	out, _ := json.Marshal(resp.Result)
	return string(out)
}

func TestServerInitialize(t *testing.T) {
	s := testServer(t)

	resp := sendRequest(t, s, "initialize", 1, map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]interface{}{},
		"clientInfo":      map[string]interface{}{"name": "test", "version": "1.0"},
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("result is not a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Fatalf("unexpected protocol version: %v", result["protocolVersion"])
	}

	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("missing serverInfo")
	}
	if serverInfo["name"] != "billforge-mcp" {
		t.Fatalf("unexpected server name: %v", serverInfo["name"])
	}
}

func TestServerToolsList(t *testing.T) {
	s := testServer(t)

	resp := sendRequest(t, s, "tools/list", 2, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result := resp.Result.(map[string]interface{})
	tools, ok := result["tools"].([]interface{})
	if !ok {
		t.Fatal("tools is not an array")
	}

	toolNames := make(map[string]bool)
	for _, tool := range tools {
		tm, ok := tool.(map[string]interface{})
		if !ok {
			continue
		}
		if name, ok := tm["name"].(string); ok {
			toolNames[name] = true
		}
	}

	expected := []string{"render_invoice", "save_template", "load_template", "list_templates", "publish_template", "compose_columns", "paper_info"}
	for _, name := range expected {
		if !toolNames[name] {
			t.Errorf("expected tool %q not found", name)
		}
	}
}

func TestServerResourcesList(t *testing.T) {
	s := testServer(t)

	resp := sendRequest(t, s, "resources/list", 3, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result := resp.Result.(map[string]interface{})
	resources, ok := result["resources"].([]interface{})
	if !ok {
		t.Fatal("resources is not an array")
	}
	if len(resources) != 4 {
		t.Fatalf("expected 4 resources, got %d", len(resources))
	}
}

func TestServerUnknownMethod(t *testing.T) {
	s := testServer(t)

	resp := sendRequest(t, s, "nonexistent/method", 4, nil)
	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Fatalf("expected error code -32601, got %d", resp.Error.Code)
	}
}

func TestServerRenderInvoiceTool(t *testing.T) {
	s := testServer(t)

	result := callTool(t, s, 5, "render_invoice", map[string]interface{}{
		"context": map[string]interface{}{
			"pharmacy_name": "Medira Pharmacy",
			"bill_number":   "INV-0001",
			"items": []interface{}{
				map[string]interface{}{"name": "Paracetamol 500mg", "qty": 2, "rate": 15.5},
			},
		},
	})

	if !strings.Contains(result, "Invoice rendered") {
		t.Fatalf("unexpected result: %s", result)
	}
	if !strings.Contains(result, "Base64") {
		t.Fatalf("expected base64 data in result: %s", result)
	}
}

func TestServerSaveLoadTemplateTools(t *testing.T) {
	s := testServer(t)

	saveResult := callTool(t, s, 6, "save_template", map[string]interface{}{
		"name": "counter",
		"template": map[string]interface{}{
			"_meta": map[string]interface{}{"paper": "A5"},
			"title": map[string]interface{}{"kind": "text", "text": "CASH MEMO", "x": 297, "y": 115},
		},
	})
	if !strings.Contains(saveResult, "Saved template") {
		t.Fatalf("unexpected save result: %s", saveResult)
	}

	loadResult := callTool(t, s, 7, "load_template", map[string]interface{}{"name": "counter"})
	if !strings.Contains(loadResult, "CASH MEMO") {
		t.Fatalf("loaded template missing saved edit: %s", loadResult)
	}

	listResult := callTool(t, s, 8, "list_templates", nil)
	if !strings.Contains(listResult, "counter") {
		t.Fatalf("unexpected list result: %s", listResult)
	}
}

func TestServerLoadMissingTemplateIsToolError(t *testing.T) {
	s := testServer(t)

	resp := sendRequest(t, s, "tools/call", 9, map[string]interface{}{
		"name":      "load_template",
		"arguments": map[string]interface{}{"name": "ghost"},
	})
	if resp.Error != nil {
		t.Fatalf("tool failures should be tool results, not protocol errors: %v", resp.Error)
	}

	out, _ := json.Marshal(resp.Result)
	if !strings.Contains(string(out), "isError") {
		t.Fatalf("expected isError result: %s", out)
	}
}

func TestServerComposeColumnsTool(t *testing.T) {
	s := testServer(t)

	result := callTool(t, s, 10, "compose_columns", map[string]interface{}{
		"columns": []interface{}{"AMOUNT", "ITEM", "QTY"},
	})

	if !strings.Contains(result, "S.N") {
		t.Fatalf("header missing serial column: %s", result)
	}
	// Canonical order, not click order.
	if strings.Index(result, "Particulars") > strings.Index(result, "Amount") {
		t.Fatalf("columns not in canonical order: %s", result)
	}
}

func TestServerPaperInfoTool(t *testing.T) {
	s := testServer(t)

	result := callTool(t, s, 11, "paper_info", map[string]interface{}{
		"format":      "a5",
		"orientation": "LANDSCAPE",
	})
	if !strings.Contains(result, "595") || !strings.Contains(result, "420") {
		t.Fatalf("unexpected dimensions: %s", result)
	}
}

func TestServerTemplateResource(t *testing.T) {
	s := testServer(t)

	callTool(t, s, 12, "save_template", map[string]interface{}{
		"name": "ward",
		"template": map[string]interface{}{
			"_meta": map[string]interface{}{"paper": "A4"},
		},
	})

	resp := sendRequest(t, s, "resources/read", 13, map[string]interface{}{
		"uri": "billforge://template?name=ward",
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	out, _ := json.Marshal(resp.Result)
	if !strings.Contains(string(out), "pharmacy_name") {
		t.Fatalf("template resource missing merged defaults: %s", out)
	}
}

func TestServerMultipleRequests(t *testing.T) {
	requests := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":4,"method":"ping"}`,
	}

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	input := strings.Join(requests, "\n") + "\n"
	var output bytes.Buffer
	s := NewServerWithIO(st, render.NewRenderer(), nil, strings.NewReader(input), &output)

	s.Run()

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 responses, got %d: %s", len(lines), output.String())
	}
	for i, line := range lines {
		var resp jsonrpcResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("response %d: unmarshal error: %v\nline: %s", i, err, line)
		}
		if resp.Error != nil {
			t.Errorf("response %d: unexpected error: %s", i, resp.Error.Message)
		}
	}
}
