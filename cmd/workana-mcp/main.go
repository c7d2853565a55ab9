// Command workana-mcp exposes the scraper's HTTP API as an MCP tool over stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/workana-scraper/models"
)

func main() {
	apiURL := os.Getenv("WORKANA_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}
	apiKey := os.Getenv("WORKANA_API_KEY")

	s := server.NewMCPServer(
		"workana-scraper",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_projects",
		mcp.WithDescription("Log in to Workana and return the current automation projects from the job listing: title, URL, budget, bids, publication date, country, contact status and full description. Takes up to a few minutes; only one scrape runs at a time."),
	)
	s.AddTool(scrapeTool, handleScrapeProjects(newClient(apiURL, apiKey)))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// newClient returns a resty client for the scraper API. The timeout sits above
// the server's own scrape deadline.
func newClient(apiURL, apiKey string) *resty.Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetTimeout(4 * time.Minute)
	if apiKey != "" {
		c.SetHeader("X-API-Key", apiKey)
	}
	return c
}

func handleScrapeProjects(client *resty.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var result models.ScrapeResult
		resp, err := client.R().
			SetContext(ctx).
			SetResult(&result).
			SetError(&result).
			Get("/api/scrape")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}

		if !result.OK() {
			msg := result.Message
			if msg == "" {
				msg = fmt.Sprintf("scrape failed with HTTP %d", resp.StatusCode())
			}
			if code := resp.Header().Get("X-Scrape-Error-Code"); code != "" && !strings.HasPrefix(msg, code) {
				msg = fmt.Sprintf("[%s] %s", code, msg)
			}
			return mcp.NewToolResultError(msg), nil
		}

		return mcp.NewToolResultText(formatProjects(result.Data)), nil
	}
}

// formatProjects renders records as a readable plain-text list.
func formatProjects(records []models.ProjectRecord) string {
	if len(records) == 0 {
		return "No projects found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d projects.\n", len(records))
	for i, r := range records {
		fmt.Fprintf(&b, "\n## %d. %s\n", i+1, models.StringOr(r.Title, "(untitled)"))
		if r.URL != nil {
			fmt.Fprintf(&b, "URL: %s\n", *r.URL)
		}
		fmt.Fprintf(&b, "Budget: %s\n", models.StringOr(r.Budget, "n/a"))
		fmt.Fprintf(&b, "Bids: %s\n", models.StringOr(r.Bids, "n/a"))
		fmt.Fprintf(&b, "Published: %s\n", models.StringOr(r.PublishedDate, "n/a"))
		fmt.Fprintf(&b, "Country: %s\n", r.Country)
		if r.Contacted {
			b.WriteString("Status: in contact\n")
		}
		fmt.Fprintf(&b, "\n%s\n", r.Description)
	}
	return b.String()
}
