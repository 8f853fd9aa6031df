package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	billforge "github.com/medira/billforge"
	"github.com/medira/billforge/columns"
	"github.com/medira/billforge/paper"
)

func (s *Server) registerResources() {
	s.AddResource(Resource{
		URI:         "billforge://template",
		Name:        "Saved Template",
		Description: "A saved template in its persisted JSON form. Pass the name as a query parameter: billforge://template?name=counter",
		MIMEType:    "application/json",
		Handler:     s.handleTemplateResource,
	})

	s.AddResource(Resource{
		URI:         "billforge://defaults",
		Name:        "Default Template",
		Description: "The built-in default template every document is merged onto.",
		MIMEType:    "application/json",
		Handler:     handleDefaultsResource,
	})

	s.AddResource(Resource{
		URI:         "billforge://papers",
		Name:        "Paper Formats",
		Description: "All supported paper formats with their design-space and physical dimensions.",
		MIMEType:    "application/json",
		Handler:     handlePapersResource,
	})

	s.AddResource(Resource{
		URI:         "billforge://columns",
		Name:        "Item Table Columns",
		Description: "The catalogue of toggleable item-table columns in canonical order.",
		MIMEType:    "application/json",
		Handler:     handleColumnsResource,
	})
}

// baseURI strips the query part so a parameterized read still resolves to its
// registered resource.
func baseURI(uri string) string {
	if idx := strings.IndexByte(uri, '?'); idx >= 0 {
		return uri[:idx]
	}
	return uri
}

// queryParam extracts a single query parameter from a resource URI like
// billforge://template?name=counter.
func queryParam(uri, key string) string {
	if idx := strings.Index(uri, key+"="); idx >= 0 {
		v := uri[idx+len(key)+1:]
		if amp := strings.IndexByte(v, '&'); amp >= 0 {
			v = v[:amp]
		}
		return v
	}
	return ""
}

func (s *Server) handleTemplateResource(uri string) ([]ResourceContent, error) {
	name := queryParam(uri, "name")
	if name == "" {
		return nil, fmt.Errorf("missing 'name' parameter in URI")
	}

	doc, err := s.store.Load(name)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}

func handleDefaultsResource(uri string) ([]ResourceContent, error) {
	data, err := json.MarshalIndent(billforge.Default(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}

func handlePapersResource(uri string) ([]ResourceContent, error) {
	formats := make([]map[string]interface{}, 0, len(paper.Formats()))
	for _, f := range paper.Formats() {
		dims, err := paper.Size(f, paper.Portrait)
		if err != nil {
			continue
		}
		formats = append(formats, map[string]interface{}{
			"format":     f,
			"design":     map[string]float64{"width": dims.DesignW, "height": dims.DesignH},
			"physicalMm": map[string]float64{"width": dims.WidthMm, "height": dims.HeightMm},
		})
	}

	data, _ := json.MarshalIndent(map[string]interface{}{"formats": formats}, "", "  ")
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}

func handleColumnsResource(uri string) ([]ResourceContent, error) {
	cols := make([]map[string]interface{}, 0, len(columns.Catalogue))
	for _, c := range columns.Catalogue {
		cols = append(cols, map[string]interface{}{
			"key":   c.Key,
			"label": c.Label,
			"width": c.Width,
		})
	}

	data, _ := json.MarshalIndent(map[string]interface{}{"columns": cols}, "", "  ")
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}
