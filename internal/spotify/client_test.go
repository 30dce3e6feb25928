package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cesargomez89/topalbums/internal/httpclient"
)

func newTestServer(t *testing.T, search http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		search(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &tokenCalls
}

func newTestClient(srv *httptest.Server) *Client {
	hc := httpclient.NewClient(srv.Client(), 0, "").WithRetry(1, time.Millisecond)
	return NewClient(Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/token",
		APIURL:       srv.URL + "/v1/",
	}, hc)
}

func TestSearchArtist(t *testing.T) {
	srv, tokenCalls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "artist" || q.Get("q") != "artist:Fiona Apple" || q.Get("limit") != "1" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"artists":{"items":[{"id":"3g2kUQ6tHLLbmkV7T4GPtL","popularity":62,"followers":{"total":1520000}}]}}`))
	})
	c := newTestClient(srv)

	for i := 0; i < 2; i++ {
		info, err := c.SearchArtist(context.Background(), "Fiona Apple")
		if err != nil {
			t.Fatalf("SearchArtist failed: %v", err)
		}
		if info == nil || info.Popularity != 62 || info.Followers != 1520000 {
			t.Errorf("Unexpected artist info: %+v", info)
		}
	}
	if *tokenCalls != 1 {
		t.Errorf("Expected token to be reused, got %d token requests", *tokenCalls)
	}
}

func TestSearchAlbum(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "album" || q.Get("q") != "album:Punisher artist:Phoebe Bridgers" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"albums":{"items":[{"id":"6Pp6qGEywDdofgFC1oFbSH","total_tracks":11,"available_markets":["US","MX"]}]}}`))
	})
	c := newTestClient(srv)

	info, err := c.SearchAlbum(context.Background(), "Phoebe Bridgers", "Punisher")
	if err != nil {
		t.Fatalf("SearchAlbum failed: %v", err)
	}
	if info == nil || info.TotalTracks != 11 || len(info.Markets) != 2 {
		t.Errorf("Unexpected album info: %+v", info)
	}
}

func TestSearch_NoResults(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"artists":{"items":[]},"albums":{"items":[]}}`))
	})
	c := newTestClient(srv)

	artist, err := c.SearchArtist(context.Background(), "Nobody")
	if err != nil || artist != nil {
		t.Errorf("Expected nil artist and no error, got %+v, %v", artist, err)
	}
	album, err := c.SearchAlbum(context.Background(), "Nobody", "Nothing")
	if err != nil || album != nil {
		t.Errorf("Expected nil album and no error, got %+v, %v", album, err)
	}
}

func TestSearch_StatusError(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := newTestClient(srv)

	_, err := c.SearchArtist(context.Background(), "Fiona Apple")
	var sErr *httpclient.StatusError
	if !errors.As(err, &sErr) || sErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 StatusError, got %v", err)
	}
}

func TestSearch_EmptyInput(t *testing.T) {
	c := &Client{}
	if info, err := c.SearchArtist(context.Background(), ""); info != nil || err != nil {
		t.Errorf("Expected nil, nil for empty artist, got %+v, %v", info, err)
	}
	if info, err := c.SearchAlbum(context.Background(), "x", ""); info != nil || err != nil {
		t.Errorf("Expected nil, nil for empty album, got %+v, %v", info, err)
	}
}

func TestSearch_TokenRequestHonorsContext(t *testing.T) {
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		t.Error("Expected no search without a token")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := c.SearchArtist(ctx, "Fiona Apple"); err == nil {
		t.Fatal("Expected error when the token request outlives the context")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Expected token request to stop at the deadline, took %v", elapsed)
	}

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	if _, err := c.SearchArtist(cancelled, "Fiona Apple"); err == nil {
		t.Fatal("Expected error for a cancelled context")
	}
	if n := atomic.LoadInt32(&tokenCalls); n > 1 {
		t.Errorf("Expected no token request after cancellation, got %d", n)
	}
}
