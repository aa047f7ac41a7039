package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/llmconn/internal/cache"
	"github.com/charmbracelet/llmconn/internal/catalog"
	"github.com/charmbracelet/llmconn/internal/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the configured models over MCP on stdio.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdin carries the protocol.
			a.pick = nil
			a.quiet = true
			a.logger.Info("serving MCP on stdio", "settings", a.configPath)
			return server.NewStdioServer(a.mcpServer()).Listen(cmd.Context(), os.Stdin, a.out) //nolint:wrapcheck
		},
	}
}

func (a *app) mcpServer() *server.MCPServer {
	s := server.NewMCPServer(
		"llmconn",
		buildVersion(),
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(
		mcp.NewTool(
			"list_models",
			mcp.WithDescription("List the titles of the configured models."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		a.mcpListModels,
	)
	s.AddTool(
		mcp.NewTool(
			"describe_model",
			mcp.WithDescription("Describe the connection a model title resolves to: trust store, proxy, TLS verification, timeouts and header names."),
			mcp.WithString("title", mcp.Description("Model title. Empty uses the default model.")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		a.mcpDescribeModel,
	)
	s.AddTool(
		mcp.NewTool(
			"list_remote_models",
			mcp.WithDescription("List the models the endpoint of a model title offers."),
			mcp.WithString("title", mcp.Description("Model title. Empty uses the default model.")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		a.mcpListRemoteModels,
	)
	return s
}

func (a *app) mcpListModels(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := a.config(ctx)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("could not load settings", err), nil
	}
	return mcp.NewToolResultText(strings.Join(cfg.Titles(), "\n")), nil
}

func (a *app) mcpDescribeModel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := a.connect(ctx, request.GetString("title", ""))
	if err != nil {
		return mcp.NewToolResultErrorFromErr("could not resolve model", err), nil
	}
	d, ok := client.Transport().(*transport.Dispatcher)
	if !ok {
		return mcp.NewToolResultErrorf("unexpected transport %T", client.Transport()), nil
	}
	return mcp.NewToolResultText(describeConnection(client.Model(), d)), nil
}

func (a *app) mcpListRemoteModels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := a.config(ctx)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("could not load settings", err), nil
	}
	model, err := a.resolve(ctx, request.GetString("title", ""))
	if err != nil {
		return mcp.NewToolResultErrorFromErr("could not resolve model", err), nil
	}
	listings, err := cache.NewListings(cfg.CachePath, cfg.CacheTTL)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("could not open the listing cache", err), nil
	}
	listing, err := a.listing(ctx, listings, model, false)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("could not list models", err), nil
	}
	return mcp.NewToolResultText(strings.Join(catalog.IDs(listing.Entries), "\n")), nil
}
