package main

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/railguard/railguard/internal/db"
	"github.com/railguard/railguard/internal/rail"
)

type summarizeArgs struct {
	Document  string  `json:"document" jsonschema:"the document text to summarize"`
	Engine    string  `json:"engine,omitempty" jsonschema:"model engine override"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"similarity threshold between 0 and 1"`
}

type guardArgs struct {
	Rail   string            `json:"rail" jsonschema:"path to a rail spec file"`
	Params map[string]string `json:"params,omitempty" jsonschema:"prompt parameters"`
	Engine string            `json:"engine,omitempty" jsonschema:"model engine override"`
}

type guardResult struct {
	CallID    string         `json:"call_id"`
	Status    string         `json:"status"`
	Raw       string         `json:"raw_response"`
	Validated map[string]any `json:"validated,omitempty"`
	Attempts  int            `json:"attempts"`
}

type historyArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of calls to return"`
}

type historyResult struct {
	Calls []db.CallRecord `json:"calls"`
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve guarded generation as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCPServer(cmd.Context())
		},
	}
}

func runMCPServer(ctx context.Context) error {
	database, workRoot, closeDB, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	cfg, err := loadConfig(workRoot)
	if err != nil {
		return err
	}
	store := db.NewStore(database)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "railguard",
		Version: appVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "guard_summarize",
		Description: "Summarize a document with schema validation and a similarity check against the source.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args summarizeArgs) (*mcp.CallToolResult, guardResult, error) {
		if args.Document == "" {
			return nil, guardResult{}, fmt.Errorf("document is required")
		}
		threshold := args.Threshold
		if threshold == 0 {
			threshold = 0.60
		}
		engine := args.Engine
		if engine == "" {
			engine = cfg.Engine
		}
		spec := summarizeSpec(threshold, rail.OnFailFilter)
		g, err := buildGuard(ctx, spec, cfg, engine, database)
		if err != nil {
			return nil, guardResult{}, err
		}
		out, err := g.Invoke(ctx, map[string]string{"document": args.Document})
		if err != nil {
			return nil, guardResult{}, err
		}
		return nil, guardResult{
			CallID:    out.CallID,
			Status:    out.Status,
			Raw:       out.RawResponse,
			Validated: out.Validated,
			Attempts:  len(out.Attempts),
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "guard_run",
		Description: "Run an arbitrary rail spec with the given prompt parameters.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args guardArgs) (*mcp.CallToolResult, guardResult, error) {
		spec, err := rail.Load(args.Rail)
		if err != nil {
			return nil, guardResult{}, err
		}
		engine := args.Engine
		if engine == "" {
			engine = cfg.Engine
		}
		g, err := buildGuard(ctx, spec, cfg, engine, database)
		if err != nil {
			return nil, guardResult{}, err
		}
		out, err := g.Invoke(ctx, args.Params)
		if err != nil {
			return nil, guardResult{}, err
		}
		return nil, guardResult{
			CallID:    out.CallID,
			Status:    out.Status,
			Raw:       out.RawResponse,
			Validated: out.Validated,
			Attempts:  len(out.Attempts),
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "guard_history",
		Description: "List recent guarded calls with their validation status.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args historyArgs) (*mcp.CallToolResult, historyResult, error) {
		limit := args.Limit
		if limit <= 0 {
			limit = 20
		}
		calls, err := store.ListCalls(ctx, limit)
		if err != nil {
			return nil, historyResult{}, err
		}
		return nil, historyResult{Calls: calls}, nil
	})

	return server.Run(ctx, &mcp.StdioTransport{})
}
