// Command billforge-mcp is an MCP (Model Context Protocol) server that
// exposes the billforge invoice template engine to AI assistants.
//
// # Installation
//
//	go install github.com/medira/billforge/cmd/billforge-mcp@latest
//
// # Configuration for Claude Desktop
//
// Add to ~/.config/claude/claude_desktop_config.json:
//
//	{
//	  "mcpServers": {
//	    "billforge": {
//	      "command": "billforge-mcp"
//	    }
//	  }
//	}
//
// # Environment
//
// Settings are read from the environment, optionally loaded from a .env file
// in the working directory:
//
//   - BILLFORGE_STORE_DIR: template store directory (default ~/.billforge/templates)
//   - BILLFORGE_FONT_DIR: directory with additional font files
//   - BILLFORGE_LETTERHEAD: PDF whose first page is drawn under every rendered page
//
// # Available Tools
//
//   - render_invoice: Render an invoice PDF from a template and billing data
//   - save_template, load_template, list_templates, template_versions,
//     delete_template: versioned template storage
//   - publish_template: Push a template version out to client targets
//   - compose_columns: Compose the monospace item-table header
//   - paper_info: Paper format dimensions
//
// # Available Resources
//
//   - billforge://template?name=... : A saved template's JSON
//   - billforge://defaults : The built-in default template
//   - billforge://papers : Supported paper formats
//   - billforge://columns : The item-table column catalogue
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/medira/billforge/mcp"
	"github.com/medira/billforge/render"
	"github.com/medira/billforge/store"
)

func main() {
	// Missing .env is fine; the environment may already be set.
	godotenv.Load()

	storeDir := os.Getenv("BILLFORGE_STORE_DIR")
	if storeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "billforge-mcp: %v\n", err)
			os.Exit(1)
		}
		storeDir = filepath.Join(home, ".billforge", "templates")
	}

	st, err := store.Open(storeDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "billforge-mcp: %v\n", err)
		os.Exit(1)
	}

	var opts []render.Option
	if dir := os.Getenv("BILLFORGE_FONT_DIR"); dir != "" {
		opts = append(opts, render.WithFontDir(dir))
	}
	if lh := os.Getenv("BILLFORGE_LETTERHEAD"); lh != "" {
		opts = append(opts, render.WithLetterhead(lh))
	}

	server := mcp.NewServer(st, render.NewRenderer(opts...), nil)
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "billforge-mcp: %v\n", err)
		os.Exit(1)
	}
}
