// Command test-tools drives every graphlens MCP tool against a throwaway
// DuckDB database seeded from a payload file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"graphlens/internal/database"
	"graphlens/internal/database/relational"
	"graphlens/internal/graph"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	payloadPath := flag.String("payload", "testdata/report.json", "exported graph payload to seed the database with")
	flag.Parse()

	_ = godotenv.Load("env/.env")

	fmt.Println("🧪 Testing graphlens MCP tools")
	fmt.Println("=======================================")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	serverPath := findServerBinary()
	if serverPath == "" {
		log.Fatal("❌ MCP server binary not found. Run: go build -o graphlens-mcp ./cmd/mcp")
	}
	fmt.Println("✅ Test 1: MCP server binary found")

	dbPath, document := seed(ctx, *payloadPath)
	defer os.RemoveAll(filepath.Dir(dbPath))
	fmt.Printf("✅ Test 2: Seeded %s as %q\n", dbPath, document)

	cmd := exec.Command(serverPath)
	cmd.Env = append(os.Environ(),
		"GRAPHLENS_SOURCE=duckdb",
		"DUCKDB_PATH="+dbPath,
	)
	cmd.Stderr = os.Stderr
	transport := &mcp.CommandTransport{Command: cmd}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MCP server: %v", err)
	}
	defer session.Close()
	fmt.Println("✅ Test 3: Connected to MCP server")

	fmt.Println("\n✓ Test 4: Listing available tools")
	listResult, err := session.ListTools(ctx, nil)
	if err != nil {
		log.Fatalf("❌ Failed to list tools: %v", err)
	}
	fmt.Printf("  Found %d tools:\n", len(listResult.Tools))
	for _, tool := range listResult.Tools {
		fmt.Printf("  - %s: %s\n", tool.Name, tool.Description)
	}

	steps := []struct {
		name string
		args map[string]any
	}{
		{"load_collection", map[string]any{"documents": []string{document}}},
		{"graph_overview", map[string]any{}},
		{"search_graph", map[string]any{"query": "a"}},
		{"table_rows", map[string]any{"table": "entities", "limit": 5}},
		{"reset_collection", map[string]any{}},
	}
	for i, step := range steps {
		fmt.Printf("\n✓ Test %d: Testing %s tool\n", i+5, step.name)
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      step.name,
			Arguments: step.args,
		})
		if err != nil {
			fmt.Printf("  ❌ %s failed: %v\n", step.name, err)
			continue
		}
		if result.IsError {
			fmt.Printf("  ❌ %s returned an error:\n", step.name)
		} else {
			fmt.Printf("  ✅ %s called successfully\n", step.name)
		}
		printPreview(result)
	}

	fmt.Println("\n=======================================")
	fmt.Println("✅ All MCP tool calling tests complete!")
	fmt.Println("\n💡 To test interactively, run: go run ./cmd/mcp-client ./graphlens-mcp")
}

// seed imports the payload into a fresh database file and returns its path
// and the document name the payload was stored under.
func seed(ctx context.Context, payloadPath string) (string, string) {
	data, err := os.ReadFile(payloadPath)
	if err != nil {
		log.Fatalf("❌ Failed to read payload: %v", err)
	}
	raw, err := graph.DecodeRaw(data)
	if err != nil {
		log.Fatalf("❌ Failed to decode payload: %v", err)
	}

	dir, err := os.MkdirTemp("", "graphlens-test-tools")
	if err != nil {
		log.Fatalf("❌ Failed to create temp dir: %v", err)
	}
	dbPath := filepath.Join(dir, "graphlens.duckdb")

	repo, err := database.OpenRepo(ctx, dbPath)
	if err != nil {
		log.Fatalf("❌ Failed to open database: %v", err)
	}
	defer repo.Close()

	document := relational.DocumentName(raw, payloadPath)
	if err := repo.Import(ctx, document, raw); err != nil {
		log.Fatalf("❌ Failed to import payload: %v", err)
	}
	return dbPath, document
}

func printPreview(result *mcp.CallToolResult) {
	for i, content := range result.Content {
		if i >= 3 {
			fmt.Printf("  ... and %d more content items\n", len(result.Content)-i)
			break
		}
		switch v := content.(type) {
		case *mcp.TextContent:
			preview := v.Text
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			fmt.Printf("    %s\n", preview)
		default:
			fmt.Printf("    [%T]\n", content)
		}
	}
}

func findServerBinary() string {
	candidates := []string{
		"./graphlens-mcp",
		"../../graphlens-mcp",
		"../../../graphlens-mcp",
	}
	for _, p := range candidates {
		if abs, err := filepath.Abs(p); err == nil {
			if _, err := os.Stat(abs); err == nil {
				return abs
			}
		}
	}
	return ""
}
