package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	billforge "github.com/medira/billforge"
	"github.com/medira/billforge/binding"
	"github.com/medira/billforge/columns"
	"github.com/medira/billforge/paper"
	"github.com/medira/billforge/store"
)

func (s *Server) registerTools() {
	s.AddTool(s.renderInvoiceTool())
	s.AddTool(s.saveTemplateTool())
	s.AddTool(s.loadTemplateTool())
	s.AddTool(s.listTemplatesTool())
	s.AddTool(s.templateVersionsTool())
	s.AddTool(s.deleteTemplateTool())
	s.AddTool(s.publishTemplateTool())
	s.AddTool(composeColumnsTool())
	s.AddTool(paperInfoTool())
}

func (s *Server) renderInvoiceTool() Tool {
	return Tool{
		Name:        "render_invoice",
		Description: "Render an invoice PDF from a saved template (by name) or an inline template object, filled with the given billing context. Returns the PDF as base64, or writes it to outputPath.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"templateName": map[string]interface{}{
					"type":        "string",
					"description": "Name of a saved template to render. Omit to use 'template' or the built-in defaults.",
				},
				"template": map[string]interface{}{
					"type":        "object",
					"description": "Inline template object in the persisted format (_meta plus one property per element id).",
				},
				"context": map[string]interface{}{
					"type":        "object",
					"description": "Billing data: pharmacy_name, address, bill_number, customer_name, items [{name, qty, rate, batch, expiry}], grand_total, and any other binding fields.",
				},
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Optional file path to save the PDF. If omitted, returns base64.",
				},
			},
		},
		Handler: s.handleRenderInvoice,
	}
}

func (s *Server) handleRenderInvoice(args map[string]interface{}) (ToolResult, error) {
	doc, err := s.resolveTemplate(args)
	if err != nil {
		return ToolResult{}, err
	}
	ctx, err := decodeContext(args["context"])
	if err != nil {
		return ToolResult{}, err
	}

	if outputPath, ok := args["outputPath"].(string); ok && outputPath != "" {
		res, err := s.renderer.RenderFile(outputPath, doc, ctx)
		if err != nil {
			return ToolResult{}, fmt.Errorf("rendering invoice: %w", err)
		}
		return textResult(fmt.Sprintf("Invoice rendered: %s (%d page(s))", outputPath, res.Pages)), nil
	}

	var buf strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	res, err := s.renderer.Render(enc, doc, ctx)
	if err != nil {
		return ToolResult{}, fmt.Errorf("rendering invoice: %w", err)
	}
	enc.Close()
	return textResult(fmt.Sprintf("Invoice rendered (%d page(s)). Base64 data:\n%s", res.Pages, buf.String())), nil
}

// resolveTemplate picks the document for a render: a saved template by name,
// an inline template object, or the built-in defaults.
func (s *Server) resolveTemplate(args map[string]interface{}) (*billforge.TemplateDocument, error) {
	if name, ok := args["templateName"].(string); ok && name != "" {
		doc, err := s.store.Load(name)
		if err != nil {
			return nil, fmt.Errorf("loading template: %w", err)
		}
		return doc, nil
	}
	if tpl, ok := args["template"]; ok {
		data, err := json.Marshal(tpl)
		if err != nil {
			return nil, fmt.Errorf("encoding template: %w", err)
		}
		return billforge.FromJSON(data), nil
	}
	return billforge.Default(), nil
}

// decodeContext converts a JSON argument object into a binding context,
// decoding the items array into typed line items.
func decodeContext(raw interface{}) (binding.Context, error) {
	ctx := binding.Context{}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return ctx, nil
	}
	for k, v := range m {
		if k == "items" {
			continue
		}
		ctx[k] = v
	}
	if itemsRaw, ok := m["items"]; ok {
		data, err := json.Marshal(itemsRaw)
		if err != nil {
			return nil, fmt.Errorf("encoding items: %w", err)
		}
		var items []billforge.LineItem
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decoding items: %w", err)
		}
		ctx["items"] = items
	}
	return ctx, nil
}

func (s *Server) saveTemplateTool() Tool {
	return Tool{
		Name:        "save_template",
		Description: "Save a template object as a new version under the given name.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Template name, e.g. 'counter' or 'thermal'",
				},
				"template": map[string]interface{}{
					"type":        "object",
					"description": "Template object in the persisted format",
				},
			},
			"required": []string{"name", "template"},
		},
		Handler: s.handleSaveTemplate,
	}
}

func (s *Server) handleSaveTemplate(args map[string]interface{}) (ToolResult, error) {
	name, _ := args["name"].(string)
	if name == "" {
		return ToolResult{}, fmt.Errorf("missing 'name' argument")
	}
	tpl, ok := args["template"]
	if !ok {
		return ToolResult{}, fmt.Errorf("missing 'template' argument")
	}
	data, err := json.Marshal(tpl)
	if err != nil {
		return ToolResult{}, fmt.Errorf("encoding template: %w", err)
	}

	v, err := s.store.Save(name, billforge.FromJSON(data))
	if err != nil {
		return ToolResult{}, err
	}
	return textResult(fmt.Sprintf("Saved template %q version %s", v.Name, v.ID)), nil
}

func (s *Server) loadTemplateTool() Tool {
	return Tool{
		Name:        "load_template",
		Description: "Load the newest version of a saved template and return it as JSON.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Template name",
				},
				"versionId": map[string]interface{}{
					"type":        "string",
					"description": "Optional specific version id. Omit for the newest.",
				},
			},
			"required": []string{"name"},
		},
		Handler: s.handleLoadTemplate,
	}
}

func (s *Server) handleLoadTemplate(args map[string]interface{}) (ToolResult, error) {
	name, _ := args["name"].(string)
	if name == "" {
		return ToolResult{}, fmt.Errorf("missing 'name' argument")
	}

	var doc *billforge.TemplateDocument
	var err error
	if versionID, ok := args["versionId"].(string); ok && versionID != "" {
		doc, err = s.store.LoadVersion(name, versionID)
	} else {
		doc, err = s.store.Load(name)
	}
	if err != nil {
		return ToolResult{}, err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ToolResult{}, err
	}
	return ToolResult{
		Content: []ContentBlock{{Type: "text", MIMEType: "application/json", Text: string(data)}},
	}, nil
}

func (s *Server) listTemplatesTool() Tool {
	return Tool{
		Name:        "list_templates",
		Description: "List the names of all saved templates.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
		Handler: func(map[string]interface{}) (ToolResult, error) {
			names, err := s.store.List()
			if err != nil {
				return ToolResult{}, err
			}
			if len(names) == 0 {
				return textResult("No templates saved."), nil
			}
			return textResult(strings.Join(names, "\n")), nil
		},
	}
}

func (s *Server) templateVersionsTool() Tool {
	return Tool{
		Name:        "template_versions",
		Description: "List all saved versions of a template, oldest first.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Template name",
				},
			},
			"required": []string{"name"},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			name, _ := args["name"].(string)
			if name == "" {
				return ToolResult{}, fmt.Errorf("missing 'name' argument")
			}
			versions, err := s.store.Versions(name)
			if err != nil {
				return ToolResult{}, err
			}
			var b strings.Builder
			for _, v := range versions {
				fmt.Fprintf(&b, "%s  %s\n", v.ID, v.SavedAt.Format("2006-01-02 15:04:05"))
			}
			return textResult(b.String()), nil
		},
	}
}

func (s *Server) deleteTemplateTool() Tool {
	return Tool{
		Name:        "delete_template",
		Description: "Delete a saved template and all of its versions.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Template name",
				},
			},
			"required": []string{"name"},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			name, _ := args["name"].(string)
			if name == "" {
				return ToolResult{}, fmt.Errorf("missing 'name' argument")
			}
			if err := s.store.Delete(name); err != nil {
				return ToolResult{}, err
			}
			return textResult(fmt.Sprintf("Deleted template %q", name)), nil
		},
	}
}

func (s *Server) publishTemplateTool() Tool {
	return Tool{
		Name:        "publish_template",
		Description: "Publish the newest version of a saved template to clients. Targets specific client ids or all known clients.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Template name",
				},
				"clientIds": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Client ids to deliver to. Omit to publish to all clients.",
				},
			},
			"required": []string{"name"},
		},
		Handler: s.handlePublishTemplate,
	}
}

func (s *Server) handlePublishTemplate(args map[string]interface{}) (ToolResult, error) {
	if s.publisher == nil {
		return ToolResult{}, billforge.ErrNoTransport
	}
	name, _ := args["name"].(string)
	if name == "" {
		return ToolResult{}, fmt.Errorf("missing 'name' argument")
	}

	targets := store.AllClients()
	if idsRaw, ok := args["clientIds"].([]interface{}); ok && len(idsRaw) > 0 {
		ids := make([]string, 0, len(idsRaw))
		for _, v := range idsRaw {
			if id, ok := v.(string); ok {
				ids = append(ids, id)
			}
		}
		targets = store.Clients(ids...)
	}

	report, err := s.publisher.Publish(context.Background(), name, targets)
	if err != nil {
		return ToolResult{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Published %q version %s to %d client(s)\n", report.Name, report.VersionID, len(report.Deliveries))
	for _, d := range report.Failed() {
		fmt.Fprintf(&b, "failed: %s: %v\n", d.ClientID, d.Err)
	}
	return textResult(b.String()), nil
}

func composeColumnsTool() Tool {
	return Tool{
		Name:        "compose_columns",
		Description: "Compose the plain-text item-table header for a set of column keys (ITEM, QTY, RATE, BATCH, EXP, DISC, TAX, AMOUNT). The serial column is always included.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"columns": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Column keys to include",
				},
			},
			"required": []string{"columns"},
		},
		Handler: handleComposeColumns,
	}
}

func handleComposeColumns(args map[string]interface{}) (ToolResult, error) {
	raw, ok := args["columns"].([]interface{})
	if !ok {
		return ToolResult{}, fmt.Errorf("missing 'columns' argument")
	}
	keys := make([]string, 0, len(raw))
	for _, v := range raw {
		if k, ok := v.(string); ok {
			keys = append(keys, k)
		}
	}

	sel := columns.ParseSelection(keys)
	header := columns.Compose(sel)
	return textResult(header.HeaderLine + "\n" + header.SeparatorLine), nil
}

func paperInfoTool() Tool {
	return Tool{
		Name:        "paper_info",
		Description: "Get the design-space and physical dimensions of a paper format (A4, A5, THERMAL_80, THERMAL_58) in a given orientation.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"format": map[string]interface{}{
					"type":        "string",
					"description": "Paper format name",
				},
				"orientation": map[string]interface{}{
					"type":        "string",
					"description": "PORTRAIT or LANDSCAPE (default PORTRAIT)",
				},
			},
			"required": []string{"format"},
		},
		Handler: handlePaperInfo,
	}
}

func handlePaperInfo(args map[string]interface{}) (ToolResult, error) {
	name, _ := args["format"].(string)
	f, err := paper.Parse(name)
	if err != nil {
		return ToolResult{}, err
	}
	o := paper.Portrait
	if orient, ok := args["orientation"].(string); ok && strings.EqualFold(orient, string(paper.Landscape)) {
		o = paper.Landscape
	}

	dims, err := paper.Size(f, o)
	if err != nil {
		return ToolResult{}, err
	}
	info := map[string]interface{}{
		"format":      f,
		"orientation": o,
		"design":      map[string]float64{"width": dims.DesignW, "height": dims.DesignH},
		"preview":     map[string]float64{"width": dims.PreviewW, "height": dims.PreviewH},
		"physicalMm":  map[string]float64{"width": dims.WidthMm, "height": dims.HeightMm},
	}
	data, _ := json.MarshalIndent(info, "", "  ")
	return ToolResult{
		Content: []ContentBlock{{Type: "text", MIMEType: "application/json", Text: string(data)}},
	}, nil
}

func textResult(text string) ToolResult {
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}
