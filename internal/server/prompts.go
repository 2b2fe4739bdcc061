package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type promptSpec struct {
	prompt *mcp.Prompt
	text   func(args map[string]string) string
}

func promptSpecs() []promptSpec {
	return []promptSpec{
		{
			prompt: &mcp.Prompt{
				Name:        ToolSearchIMDb,
				Description: "Search IMDb for movies, TV shows, or people.",
				Arguments: []*mcp.PromptArgument{
					{Name: "query", Description: "Search query for IMDb", Required: true},
					{Name: "content_type", Description: "Type of content to search for (movie, tv, person)"},
					{Name: "limit", Description: "Maximum number of results to return (default: 10)"},
				},
			},
			text: func(args map[string]string) string {
				text := "Here is the search query: " + args["query"]
				if ct := args["content_type"]; ct != "" {
					text += fmt.Sprintf(" (content type: %s)", ct)
				}
				return text + limitSuffix(args) + "\n\n"
			},
		},
		{
			prompt: &mcp.Prompt{
				Name:        ToolGetMovieDetails,
				Description: "Get details about a movie or TV show from IMDb.",
				Arguments: []*mcp.PromptArgument{
					{Name: "imdb_id", Description: "IMDb ID (with or without 'tt' prefix)", Required: true},
				},
			},
			text: func(args map[string]string) string {
				return "Here is the IMDb ID: " + args["imdb_id"] + "\n\n"
			},
		},
		{
			prompt: &mcp.Prompt{
				Name:        ToolGetActorDetails,
				Description: "Get details about an actor, actress, director or other person from IMDb.",
				Arguments: []*mcp.PromptArgument{
					{Name: "person_id", Description: "IMDb person ID (with or without 'nm' prefix)", Required: true},
				},
			},
			text: func(args map[string]string) string {
				return "Here is the IMDb person ID: " + args["person_id"] + "\n\n"
			},
		},
		{
			prompt: &mcp.Prompt{
				Name:        ToolSearchPeople,
				Description: "Search for actors, actresses, directors, and other people on IMDb.",
				Arguments: []*mcp.PromptArgument{
					{Name: "query", Description: "Search query for people on IMDb", Required: true},
					{Name: "limit", Description: "Maximum number of results to return (default: 10)"},
				},
			},
			text: func(args map[string]string) string {
				return "Search for people on IMDb: " + args["query"] + limitSuffix(args) + "\n\n"
			},
		},
	}
}

// limitSuffix mentions the limit only when it differs from the default.
func limitSuffix(args map[string]string) string {
	limit := args["limit"]
	if limit == "" || limit == "10" {
		return ""
	}
	return fmt.Sprintf(" (limit: %s)", limit)
}

func promptHandler(spec promptSpec) mcp.PromptHandler {
	return func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := map[string]string{}
		if req != nil && req.Params != nil && req.Params.Arguments != nil {
			args = req.Params.Arguments
		}
		return &mcp.GetPromptResult{
			Description: spec.prompt.Description,
			Messages: []*mcp.PromptMessage{
				{Role: "user", Content: &mcp.TextContent{Text: spec.text(args)}},
			},
		}, nil
	}
}
