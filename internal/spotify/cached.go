package spotify

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

type ClientInterface interface {
	SearchArtist(ctx context.Context, name string) (*ArtistInfo, error)
	SearchAlbum(ctx context.Context, artist, album string) (*AlbumInfo, error)
}

var _ ClientInterface = (*Client)(nil)
var _ ClientInterface = (*CachedClient)(nil)

// Cache is implemented by *store.DB.
type Cache interface {
	GetCache(ctx context.Context, key string) ([]byte, error)
	SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

type CachedClient struct {
	client ClientInterface
	cache  Cache
	ttl    time.Duration
}

func NewCachedClient(client ClientInterface, cache Cache, ttl time.Duration) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  cache,
		ttl:    ttl,
	}
}

type cachedArtist struct {
	Artist   *ArtistInfo `json:"artist"`
	NotFound bool        `json:"not_found"`
}

type cachedAlbum struct {
	Album    *AlbumInfo `json:"album"`
	NotFound bool       `json:"not_found"`
}

func (c *CachedClient) SearchArtist(ctx context.Context, name string) (*ArtistInfo, error) {
	cacheKey := "spotify:artist:" + cacheName(name)

	var cached cachedArtist
	if c.lookup(ctx, cacheKey, &cached) {
		return cached.Artist, nil
	}

	info, err := c.client.SearchArtist(ctx, name)
	if err != nil {
		return nil, err
	}

	c.store(ctx, cacheKey, cachedArtist{Artist: info, NotFound: info == nil})
	return info, nil
}

func (c *CachedClient) SearchAlbum(ctx context.Context, artist, album string) (*AlbumInfo, error) {
	cacheKey := "spotify:album:" + cacheName(artist) + ":" + cacheName(album)

	var cached cachedAlbum
	if c.lookup(ctx, cacheKey, &cached) {
		return cached.Album, nil
	}

	info, err := c.client.SearchAlbum(ctx, artist, album)
	if err != nil {
		return nil, err
	}

	c.store(ctx, cacheKey, cachedAlbum{Album: info, NotFound: info == nil})
	return info, nil
}

// lookup reports whether key held a decodable entry. Cache read errors count as a miss.
func (c *CachedClient) lookup(ctx context.Context, key string, out interface{}) bool {
	data, err := c.cache.GetCache(ctx, key)
	if err != nil || data == nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (c *CachedClient) store(ctx context.Context, key string, v interface{}) {
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.SetCache(ctx, key, data, c.ttl)
	}
}

func cacheName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
