// Package enrich fills scraped records with Spotify artist and album stats.
package enrich

import (
	"context"

	"github.com/cesargomez89/topalbums/internal/domain"
	"github.com/cesargomez89/topalbums/internal/logger"
	"github.com/cesargomez89/topalbums/internal/spotify"
)

// Stats counts what a batch enrichment changed.
type Stats struct {
	Artists  int `json:"artists"`
	Albums   int `json:"albums"`
	Failures int `json:"failures"`
}

type Enricher struct {
	client spotify.ClientInterface
	log    *logger.Logger
}

func NewEnricher(client spotify.ClientInterface, log *logger.Logger) *Enricher {
	if log == nil {
		log = logger.Default()
	}
	return &Enricher{
		client: client,
		log:    log.WithComponent("enrich"),
	}
}

// EnrichBatch fills empty artist and album fields of records in place. Lookup
// failures are logged and skipped; only context cancellation is returned.
func (e *Enricher) EnrichBatch(ctx context.Context, records []domain.AlbumRecord) (Stats, error) {
	var stats Stats
	artists := make(map[string]*spotify.ArtistInfo)

	for i := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rec := &records[i]
		log := e.log.WithAlbum(rec.Rank, rec.Name)

		if needsArtist(rec) {
			info, seen := artists[rec.ArtistName]
			if !seen {
				var err error
				info, err = e.client.SearchArtist(ctx, rec.ArtistName)
				if err != nil {
					if ctx.Err() != nil {
						return stats, ctx.Err()
					}
					log.Warn("Spotify artist lookup failed", "artist", rec.ArtistName, "error", err)
					stats.Failures++
				} else {
					artists[rec.ArtistName] = info
				}
			}
			if applyArtist(rec, info) {
				stats.Artists++
			}
		}

		if needsAlbum(rec) {
			info, err := e.client.SearchAlbum(ctx, rec.ArtistName, rec.Name)
			if err != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				log.Warn("Spotify album lookup failed", "error", err)
				stats.Failures++
				continue
			}
			if applyAlbum(rec, info) {
				stats.Albums++
			}
		}
	}

	e.log.Info("Batch enriched", "records", len(records), "artists", stats.Artists, "albums", stats.Albums, "failures", stats.Failures)
	return stats, nil
}

func needsArtist(rec *domain.AlbumRecord) bool {
	return rec.ArtistName != "" && (rec.ArtistPopularity == nil || rec.ArtistFollowers == nil)
}

func needsAlbum(rec *domain.AlbumRecord) bool {
	return rec.Name != "" && (rec.TrackCount == nil || len(rec.Markets) == 0)
}

func applyArtist(rec *domain.AlbumRecord, info *spotify.ArtistInfo) bool {
	if info == nil {
		return false
	}
	changed := false
	if rec.ArtistPopularity == nil {
		v := info.Popularity
		rec.ArtistPopularity = &v
		changed = true
	}
	if rec.ArtistFollowers == nil {
		v := info.Followers
		rec.ArtistFollowers = &v
		changed = true
	}
	return changed
}

func applyAlbum(rec *domain.AlbumRecord, info *spotify.AlbumInfo) bool {
	if info == nil {
		return false
	}
	changed := false
	if rec.TrackCount == nil && info.TotalTracks > 0 {
		v := info.TotalTracks
		rec.TrackCount = &v
		changed = true
	}
	if len(rec.Markets) == 0 && len(info.Markets) > 0 {
		rec.Markets = append([]string(nil), info.Markets...)
		changed = true
	}
	return changed
}
