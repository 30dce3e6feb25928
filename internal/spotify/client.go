// Package spotify looks up artist and album stats through the Spotify Web API.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/cesargomez89/topalbums/internal/httpclient"
)

// ArtistInfo is the subset of a Spotify artist the loader stores.
type ArtistInfo struct {
	ID         string `json:"id"`
	Popularity int    `json:"popularity"`
	Followers  int    `json:"followers"`
}

// AlbumInfo is the subset of a Spotify album the loader stores.
type AlbumInfo struct {
	ID          string   `json:"id"`
	Markets     []string `json:"markets"`
	TotalTracks int      `json:"total_tracks"`
}

type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string
}

type Client struct {
	http    *httpclient.Client
	creds   *clientcredentials.Config
	baseURL string

	mu  sync.Mutex
	tok *oauth2.Token
}

// NewClient returns a client authenticated with the client credentials flow.
// Token requests share hc's transport; API requests go through hc for rate
// limiting and retries.
func NewClient(cfg Config, hc *httpclient.Client) *Client {
	return &Client{
		http: hc,
		creds: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		},
		baseURL: strings.TrimSuffix(cfg.APIURL, "/"),
	}
}

// token returns the cached access token, fetching a new one under ctx once it
// has expired.
func (c *Client) token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tok.Valid() {
		return c.tok, nil
	}
	tok, err := c.creds.Token(context.WithValue(ctx, oauth2.HTTPClient, c.http.HTTPClient()))
	if err != nil {
		return nil, err
	}
	c.tok = tok
	return tok, nil
}

type artistSearchResponse struct {
	Artists struct {
		Items []struct {
			ID         string `json:"id"`
			Popularity int    `json:"popularity"`
			Followers  struct {
				Total int `json:"total"`
			} `json:"followers"`
		} `json:"items"`
	} `json:"artists"`
}

type albumSearchResponse struct {
	Albums struct {
		Items []struct {
			ID               string   `json:"id"`
			AvailableMarkets []string `json:"available_markets"`
			TotalTracks      int      `json:"total_tracks"`
		} `json:"items"`
	} `json:"albums"`
}

// SearchArtist returns the best match for name, or nil when there is none.
func (c *Client) SearchArtist(ctx context.Context, name string) (*ArtistInfo, error) {
	if name == "" {
		return nil, nil
	}

	var result artistSearchResponse
	if err := c.search(ctx, "artist:"+name, "artist", &result); err != nil {
		return nil, err
	}
	if len(result.Artists.Items) == 0 {
		return nil, nil
	}

	a := result.Artists.Items[0]
	return &ArtistInfo{ID: a.ID, Popularity: a.Popularity, Followers: a.Followers.Total}, nil
}

// SearchAlbum returns the best match for the album by artist, or nil when there is none.
func (c *Client) SearchAlbum(ctx context.Context, artist, album string) (*AlbumInfo, error) {
	if album == "" {
		return nil, nil
	}

	q := "album:" + album
	if artist != "" {
		q += " artist:" + artist
	}

	var result albumSearchResponse
	if err := c.search(ctx, q, "album", &result); err != nil {
		return nil, err
	}
	if len(result.Albums.Items) == 0 {
		return nil, nil
	}

	a := result.Albums.Items[0]
	return &AlbumInfo{ID: a.ID, TotalTracks: a.TotalTracks, Markets: a.AvailableMarkets}, nil
}

func (c *Client) search(ctx context.Context, query, kind string, out interface{}) error {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", kind)
	params.Set("limit", "1")
	u := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	tok, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("spotify token: %w", err)
	}
	tok.SetAuthHeader(req)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return &httpclient.StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
