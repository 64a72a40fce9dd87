package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"graphlens/internal/session"

	"github.com/cockroachdb/errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const help = `Available commands:
  /tools                    - List available tools
  /load <doc> [doc...]      - Load documents into the collection
  /single <doc>             - Load one document as a single item view
  /overview                 - Show label and relationship chips
  /search <query> [bucket]  - Search nodes, optionally within one bucket (debounced)
  /table [bucket:<b>] <id> [filter...]
                            - Show rows of documents, chunks, entities or relationships
  /reset                    - Drop the loaded collection
  /exit                     - Exit the client
`

func main() {
	debounce := flag.Duration("debounce", session.DefaultDebounce, "quiet period before a /search is sent")
	flag.Parse()
	args := flag.Args()

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: mcp-client <server-command> [<args>]")
		fmt.Fprintln(os.Stderr, "Example: mcp-client ./graphlens-mcp")
		os.Exit(2)
	}

	ctx := context.Background()

	cmd := exec.Command(args[0], args[1:]...)
	transport := &mcp.CommandTransport{Command: cmd}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "graphlens-client",
		Version: "1.0.0",
	}, nil)

	cs, err := client.Connect(ctx, transport, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer cs.Close()

	searches := session.NewDebouncer(*debounce)
	defer searches.Flush()
	call := func(name string, args map[string]any) {
		callTool(ctx, cs, name, args)
	}

	fmt.Println("Connected to graphlens MCP server!")
	fmt.Print(help + "\n")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			searches.Stop()
			fmt.Println("Goodbye!")
			return
		case "/tools":
			searches.Flush()
			listTools(ctx, cs)
			continue
		}

		if err := dispatch(input, searches, call); err != nil {
			fmt.Println(err)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Scanner error: %v", err)
	}
}

// dispatch runs one REPL line. Searches wait out the debouncer so only the
// last of a burst reaches the server; any other command first sends the
// pending search to keep calls in order.
func dispatch(input string, searches *session.Debouncer, call func(string, map[string]any)) error {
	name, args, err := parseCommand(input)
	if err != nil {
		return err
	}
	if name == "search_graph" {
		searches.Trigger(func() { call(name, args) })
		return nil
	}
	searches.Flush()
	call(name, args)
	return nil
}

// parseCommand maps a REPL line to a tool name and its arguments.
func parseCommand(input string) (string, map[string]any, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil, errors.New("empty command")
	}
	rest := parts[1:]

	switch parts[0] {
	case "/load", "/single":
		if len(rest) == 0 {
			return "", nil, errors.Newf("usage: %s <doc>", parts[0])
		}
		args := map[string]any{"documents": rest}
		if parts[0] == "/single" {
			args["single"] = true
		}
		return "load_collection", args, nil

	case "/overview":
		return "graph_overview", map[string]any{}, nil

	case "/search":
		if len(rest) == 0 {
			return "", nil, errors.New("usage: /search <query> [bucket]")
		}
		args := map[string]any{"query": rest[0]}
		if len(rest) > 1 {
			args["bucket"] = rest[1]
		}
		return "search_graph", args, nil

	case "/table":
		args := map[string]any{}
		if len(rest) > 0 && strings.HasPrefix(rest[0], "bucket:") {
			args["bucket"] = strings.TrimPrefix(rest[0], "bucket:")
			rest = rest[1:]
		}
		if len(rest) > 0 {
			args["table"] = rest[0]
		}
		if len(rest) > 1 {
			args["filter"] = strings.Join(rest[1:], " ")
		}
		return "table_rows", args, nil

	case "/reset":
		return "reset_collection", map[string]any{}, nil
	}
	return "", nil, errors.Newf("unknown command %q, try /tools", parts[0])
}

func listTools(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("Available Tools:")
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			log.Printf("Error listing tools: %v", err)
			return
		}
		fmt.Printf("  - %s: %s\n", tool.Name, tool.Description)
	}
	fmt.Println()
}

func callTool(ctx context.Context, session *mcp.ClientSession, name string, args map[string]any) {
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		log.Printf("Error calling %s: %v", name, err)
		return
	}
	printResult(result)
}

// printResult prefers the structured result, indented, over the text copy.
func printResult(result *mcp.CallToolResult) {
	if result.IsError {
		fmt.Print("❌ Error: ")
	} else {
		fmt.Print("✅ Result: ")
	}

	if result.StructuredContent != nil && !result.IsError {
		if data, err := json.MarshalIndent(result.StructuredContent, "", "  "); err == nil {
			fmt.Println(string(data))
			fmt.Println()
			return
		}
	}
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			fmt.Println(text.Text)
			continue
		}
		fmt.Printf("%+v\n", content)
	}
	fmt.Println()
}
