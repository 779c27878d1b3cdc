// Package oembed looks up metadata for hosted videos through provider oEmbed endpoints.
package oembed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUnsupportedProvider is returned for providers without an oEmbed endpoint.
var ErrUnsupportedProvider = errors.New("provider has no oembed endpoint")

// Provider names accepted by Lookup.
const (
	ProviderYouTube = "YOUTUBE"
	ProviderVimeo   = "VIMEO"
)

var defaultEndpoints = map[string]string{
	ProviderYouTube: "https://www.youtube.com/oembed",
	ProviderVimeo:   "https://vimeo.com/api/oembed.json",
}

// Result holds the subset of the oEmbed response the API uses.
type Result struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     int    `json:"duration"`
}

// Client queries oEmbed endpoints with resty.
type Client struct {
	http      *resty.Client
	endpoints map[string]string
}

// NewClient builds a client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	endpoints := make(map[string]string, len(defaultEndpoints))
	for k, v := range defaultEndpoints {
		endpoints[k] = v
	}
	return &Client{
		http:      resty.New().SetTimeout(timeout).SetHeader("Accept", "application/json"),
		endpoints: endpoints,
	}
}

// Supports reports whether provider has a known endpoint. A nil client supports nothing.
func (c *Client) Supports(provider string) bool {
	if c == nil {
		return false
	}
	_, ok := c.endpoints[provider]
	return ok
}

// Lookup fetches oEmbed metadata for videoURL hosted by provider.
func (c *Client) Lookup(ctx context.Context, provider, videoURL string) (*Result, error) {
	endpoint, ok := c.endpoints[provider]
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"url": videoURL, "format": "json"}).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("oembed request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("oembed %s responded %d", provider, resp.StatusCode())
	}
	var out Result
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode oembed response: %w", err)
	}
	return &out, nil
}
