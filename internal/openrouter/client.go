// Package openrouter fetches the model catalog from the OpenRouter API.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/everstacklabs/orcatalog/internal/catalog"
	"github.com/everstacklabs/orcatalog/internal/httpclient"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// ErrModelNotFound is returned by ModelDetails for an id missing from the
// catalog.
var ErrModelNotFound = errors.New("model not found")

// Config holds credentials and attribution sent with every request.
type Config struct {
	APIKey  string
	BaseURL string
	AppName string
	AppURL  string
}

// Client lists models from the OpenRouter API.
type Client struct {
	cfg  Config
	http *httpclient.Client
}

// New creates a Client. An empty BaseURL selects DefaultBaseURL.
func New(cfg Config, client *httpclient.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: client}
}

func (c *Client) headers() map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
		"Content-Type":  "application/json",
	}
	if c.cfg.AppURL != "" {
		h["HTTP-Referer"] = c.cfg.AppURL
	}
	if c.cfg.AppName != "" {
		h["X-Title"] = c.cfg.AppName
	}
	return h
}

// FetchCatalog returns every catalog entry, in upstream order, as raw JSON.
func (c *Client) FetchCatalog(ctx context.Context) ([]catalog.RawEntry, error) {
	url := c.cfg.BaseURL + "/models"
	slog.Info("fetching models", "url", url)

	resp, err := c.http.Get(ctx, url, c.headers())
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, httpclient.Malformed(url, errors.New("response is not valid JSON"))
	}
	data := gjson.GetBytes(resp.Body, "data")
	if !data.IsArray() {
		return nil, httpclient.Malformed(url, errors.New(`response has no "data" array`))
	}

	var entries []catalog.RawEntry
	data.ForEach(func(_, v gjson.Result) bool {
		entries = append(entries, catalog.RawEntry(v.Raw))
		return true
	})
	if entries == nil {
		entries = []catalog.RawEntry{}
	}

	slog.Info("fetched models", "models", len(entries), "attempts", resp.Attempts)
	return entries, nil
}

// ModelDetails returns the raw entry for a single model id.
func (c *Client) ModelDetails(ctx context.Context, id string) (catalog.RawEntry, error) {
	entries, err := c.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if gjson.GetBytes(e, "id").String() == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrModelNotFound)
}
