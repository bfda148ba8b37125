// Package mcpserver exposes the content graph resolvers as MCP tools, so an
// editor or agent can query a built site over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/aryanpingle/thecodingtrain.com/internal/resolve"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	serverName    = "sitegraph"
	serverVersion = "0.1.0"
)

// Handlers holds the graph the tools query. Graph is usually a
// graph.HotSwapGraph so rebuilds are picked up without a restart.
type Handlers struct {
	Graph graph.Graph
	Log   *zap.Logger
}

// New builds an MCP server with every tool registered.
func New(g graph.Graph, log *zap.Logger) *server.MCPServer {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handlers{Graph: g, Log: log}
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	listOpts := []mcp.ToolOption{
		mcp.WithString("language", mcp.Description("Only entries tagged with this language")),
		mcp.WithString("topic", mcp.Description("Only entries tagged with this topic")),
		mcp.WithNumber("skip", mcp.Description("Entries to skip")),
		mcp.WithNumber("limit", mcp.Description("Maximum entries to return (0 for all)")),
	}
	s.AddTool(mcp.NewTool("list_tracks",
		append([]mcp.ToolOption{mcp.WithDescription("List tracks in display order")}, listOpts...)...,
	), h.ListTracks)
	s.AddTool(mcp.NewTool("list_challenges",
		append([]mcp.ToolOption{mcp.WithDescription("List challenges, newest first")}, listOpts...)...,
	), h.ListChallenges)
	s.AddTool(mcp.NewTool("track_tags",
		mcp.WithDescription("Languages or topics used by the videos of a track"),
		mcp.WithString("track", mcp.Required(), mcp.Description("Track slug")),
		mcp.WithString("field", mcp.Description(`"languages" (default) or "topics"`)),
	), h.TrackTags)
	s.AddTool(mcp.NewTool("showcase",
		mcp.WithDescription("Community contributions for a video or challenge"),
		mcp.WithString("video", mcp.Required(), mcp.Description("Video node ID")),
	), h.Showcase)
	s.AddTool(mcp.NewTool("cover_image",
		mcp.WithDescription("Cover image of an entity"),
		mcp.WithString("owner", mcp.Required(), mcp.Description("Owning node ID")),
	), h.CoverImage)
	s.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Fetch any node by ID"),
		mcp.WithString("id", mcp.Required()),
	), h.GetNode)
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(g graph.Graph, log *zap.Logger) error {
	return server.ServeStdio(New(g, log))
}

func listArgs(req mcp.CallToolRequest) (resolve.Filters, resolve.Page) {
	return resolve.Filters{
			Language: req.GetString("language", ""),
			Topic:    req.GetString("topic", ""),
		}, resolve.Page{
			Skip:  req.GetInt("skip", 0),
			Limit: req.GetInt("limit", 0),
		}
}

func (h *Handlers) ListTracks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, p := listArgs(req)
	nodes, err := resolve.Tracks(ctx, h.Graph, f, p)
	if err != nil {
		return h.fail("list_tracks", err), nil
	}
	return jsonResult(graph.Records(nodes))
}

func (h *Handlers) ListChallenges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, p := listArgs(req)
	nodes, err := resolve.Challenges(ctx, h.Graph, f, p)
	if err != nil {
		return h.fail("list_challenges", err), nil
	}
	return jsonResult(graph.Records(nodes))
}

func (h *Handlers) TrackTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("track")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	field := req.GetString("field", "languages")
	if field != "languages" && field != "topics" {
		return mcp.NewToolResultError(fmt.Sprintf("unknown tag field %q", field)), nil
	}
	track, err := resolve.BySlug(ctx, h.Graph, api.TypeTrack, slug)
	if err != nil {
		return h.fail("track_tags", err), nil
	}
	tags, err := resolve.Tags(ctx, h.Graph, track, field)
	if err != nil {
		return h.fail("track_tags", err), nil
	}
	return jsonResult(tags)
}

func (h *Handlers) Showcase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	video, err := req.RequireString("video")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nodes, err := resolve.Showcase(ctx, h.Graph, video)
	if err != nil {
		return h.fail("showcase", err), nil
	}
	return jsonResult(graph.Records(nodes))
}

func (h *Handlers) CoverImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("owner")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := resolve.CoverImage(ctx, h.Graph, owner)
	if err != nil {
		return h.fail("cover_image", err), nil
	}
	if n == nil {
		return mcp.NewToolResultText("null"), nil
	}
	return jsonResult(n.Record())
}

func (h *Handlers) GetNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := h.Graph.GetNode(ctx, id)
	if err != nil {
		return h.fail("get_node", err), nil
	}
	return jsonResult(n.Record())
}

// fail reports a query error to the client as a tool error. Only protocol
// failures are returned as Go errors.
func (h *Handlers) fail(tool string, err error) *mcp.CallToolResult {
	if !errors.Is(err, graph.ErrNotFound) {
		h.Log.Warn("tool failed", zap.String("tool", tool), zap.Error(err))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
