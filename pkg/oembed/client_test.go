package oembed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupReturnsThumbnail(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Intro","thumbnail_url":"https://i.ytimg.com/vi/abc/hqdefault.jpg"}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	c.endpoints[ProviderYouTube] = srv.URL

	res, err := c.Lookup(context.Background(), ProviderYouTube, "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/abc", gotURL)
	assert.Equal(t, "https://i.ytimg.com/vi/abc/hqdefault.jpg", res.ThumbnailURL)
}

func TestLookupErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	c.endpoints[ProviderVimeo] = srv.URL

	_, err := c.Lookup(context.Background(), ProviderVimeo, "https://vimeo.com/1")
	assert.Error(t, err)

	_, err = c.Lookup(context.Background(), "GOOGLE_DRIVE", "https://drive.google.com/x")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.False(t, c.Supports("ONE_DRIVE"))
}
