package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/tablescout/models"
)

func main() {
	apiURL := os.Getenv("TABLESCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5000"
	}
	// Optional: the server only checks keys when auth is enabled.
	apiKey := os.Getenv("TABLESCOUT_API_KEY")

	s := server.NewMCPServer(
		"tablescout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	c := &client{
		baseURL: strings.TrimRight(apiURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 120 * time.Second},
	}

	scrapeTool := mcp.NewTool("scrape_restaurants",
		mcp.WithDescription("Scrape the configured restaurant listing page now and return the restaurant names found. The server saves the result for get_restaurants."),
		mcp.WithNumber("max_age",
			mcp.Description("Reuse a cached result younger than this many milliseconds instead of scraping again (0 = always scrape)"),
		),
	)
	s.AddTool(scrapeTool, handleScrape(c))

	dataTool := mcp.NewTool("get_restaurants",
		mcp.WithDescription("Return the restaurants saved by the last successful scrape without scraping again."),
	)
	s.AddTool(dataTool, handleData(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// client calls the tablescout HTTP API.
type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func (c *client) get(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func handleScrape(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := url.Values{}
		if maxAge := request.GetInt("max_age", 0); maxAge > 0 {
			query.Set("max_age", strconv.Itoa(maxAge))
		}

		status, body, err := c.get(ctx, "/scrape", query)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		text, err := formatScrape(status, body)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func handleData(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status, body, err := c.get(ctx, "/data", nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		text, err := formatData(status, body)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// formatScrape renders a /scrape response. A failed scrape is an error.
func formatScrape(status int, body []byte) (string, error) {
	if status == http.StatusOK {
		var resp models.ScrapeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}
		var sb strings.Builder
		sb.WriteString(resp.Message)
		sb.WriteString("\n")
		if resp.Provider != "" {
			fmt.Fprintf(&sb, "Provider: %s\n", resp.Provider)
		}
		if resp.CacheStatus != "" {
			fmt.Fprintf(&sb, "Cache: %s\n", resp.CacheStatus)
		}
		fmt.Fprintf(&sb, "Last updated: %s\n", resp.LastUpdated)
		writeNames(&sb, resp.Restaurants)
		return sb.String(), nil
	}

	var fail models.ScrapeFailure
	if err := json.Unmarshal(body, &fail); err != nil || (fail.Message == "" && fail.Error == "") {
		return "", fmt.Errorf("scrape request failed with status %d", status)
	}
	msg := fail.Message
	if fail.Error != "" {
		msg += " (" + fail.Error + ")"
	}
	return "", fmt.Errorf("%s", msg)
}

// formatData renders a /data response. Having no data yet is not an error.
func formatData(status int, body []byte) (string, error) {
	if status != http.StatusOK {
		var er models.ErrorResponse
		if err := json.Unmarshal(body, &er); err != nil || er.Message == "" {
			return "", fmt.Errorf("data request failed with status %d", status)
		}
		return "", fmt.Errorf("%s", er.Message)
	}

	// The placeholder carries a message; a stored envelope never does.
	var resp struct {
		models.Envelope
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Message != "" {
		return resp.Message, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d restaurants, last updated %s\n", resp.Count, resp.LastUpdated)
	writeNames(&sb, resp.Restaurants)
	return sb.String(), nil
}

func writeNames(sb *strings.Builder, restaurants []models.Restaurant) {
	if len(restaurants) == 0 {
		return
	}
	sb.WriteString("\n")
	for i, r := range restaurants {
		fmt.Fprintf(sb, "%d. %s\n", i+1, r.Name)
	}
}
