package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cesargomez89/topalbums/internal/constants"
	"github.com/cesargomez89/topalbums/internal/domain"
)

// AttributePolicy decides what happens to incidental attributes when a
// dimension row already exists.
type AttributePolicy int

const (
	// FirstWriteWins keeps the attributes stored on creation.
	FirstWriteWins AttributePolicy = iota
	// RefreshMutable overwrites mutable attributes with non-null new values.
	RefreshMutable
)

// resolveOrCreate returns the id of the row identified by a natural key,
// looking it up before inserting so existing rows never consume a sequence
// value. insert must be an INSERT ... ON CONFLICT ... RETURNING id.
func (db *DB) resolveOrCreate(ctx context.Context, table, insert string, insertArgs []interface{}, lookup string, lookupArgs ...interface{}) (int64, error) {
	var id int64
	err := db.GetContext(ctx, &id, db.Rebind(lookup), lookupArgs...)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup in %s: %w", table, err)
	}
	return db.insertOrLookup(ctx, table, insert, insertArgs, lookup, lookupArgs...)
}

// insertOrLookup runs insert; when a concurrent writer won the conflict no id
// comes back and lookup fetches the existing one.
func (db *DB) insertOrLookup(ctx context.Context, table, insert string, insertArgs []interface{}, lookup string, lookupArgs ...interface{}) (int64, error) {
	var id int64
	err := db.GetContext(ctx, &id, db.Rebind(insert), insertArgs...)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}

	if err := db.GetContext(ctx, &id, db.Rebind(lookup), lookupArgs...); err != nil {
		return 0, fmt.Errorf("lookup in %s: %w", table, err)
	}
	return id, nil
}

// ResolveChart returns the id of the (filter, year, sort) chart, creating it once.
func (db *DB) ResolveChart(ctx context.Context, key domain.ChartKey) (int64, error) {
	if err := key.Validate(); err != nil {
		return 0, err
	}
	return db.resolveOrCreate(ctx, "charts",
		`INSERT INTO charts (filter_method, year, sort_method) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING RETURNING id`,
		[]interface{}{key.Filter, key.Year, key.Sort},
		`SELECT id FROM charts WHERE filter_method = ? AND year = ? AND sort_method = ?`,
		key.Filter, key.Year, key.Sort,
	)
}

const (
	insertArtist = `INSERT INTO artists (name, profile_link, popularity, followers) VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING RETURNING id`

	refreshArtist = `INSERT INTO artists (name, profile_link, popularity, followers) VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			profile_link = COALESCE(excluded.profile_link, artists.profile_link),
			popularity = COALESCE(excluded.popularity, artists.popularity),
			followers = COALESCE(excluded.followers, artists.followers)
		RETURNING id`
)

// ResolveArtist returns the artist id for a.Name. Link, popularity and followers
// are written on creation, and on later sightings only under RefreshMutable.
func (db *DB) ResolveArtist(ctx context.Context, a domain.Artist, policy AttributePolicy) (int64, error) {
	args := []interface{}{a.Name, a.ProfileLink, a.Popularity, a.Followers}
	lookup := `SELECT id FROM artists WHERE name = ?`
	if policy == RefreshMutable {
		return db.insertOrLookup(ctx, "artists", refreshArtist, args, lookup, a.Name)
	}
	return db.resolveOrCreate(ctx, "artists", insertArtist, args, lookup, a.Name)
}

func (db *DB) ResolvePublisher(ctx context.Context, p domain.Publisher) (int64, error) {
	return db.resolveOrCreate(ctx, "publishers",
		`INSERT INTO publishers (name, profile_link) VALUES (?, ?) ON CONFLICT DO NOTHING RETURNING id`,
		[]interface{}{p.Name, p.ProfileLink},
		`SELECT id FROM publishers WHERE name = ?`, p.Name,
	)
}

func (db *DB) ResolveSummary(ctx context.Context, text string) (int64, error) {
	lookup := `SELECT id FROM summaries WHERE summary = ?`
	args := []interface{}{text}
	if db.dialect == constants.DriverPostgres {
		lookup = `SELECT id FROM summaries WHERE md5(summary) = md5(?::text) AND summary = ?`
		args = append(args, text)
	}
	return db.resolveOrCreate(ctx, "summaries",
		`INSERT INTO summaries (summary) VALUES (?) ON CONFLICT DO NOTHING RETURNING id`,
		[]interface{}{text},
		lookup, args...,
	)
}

func (db *DB) ResolveGenre(ctx context.Context, name string) (int64, error) {
	return db.resolveOrCreate(ctx, "genres",
		`INSERT INTO genres (name) VALUES (?) ON CONFLICT DO NOTHING RETURNING id`,
		[]interface{}{name},
		`SELECT id FROM genres WHERE name = ?`, name,
	)
}

func (db *DB) ResolveMarket(ctx context.Context, code string) (int64, error) {
	return db.resolveOrCreate(ctx, "markets",
		`INSERT INTO markets (code) VALUES (?) ON CONFLICT DO NOTHING RETURNING id`,
		[]interface{}{code},
		`SELECT id FROM markets WHERE code = ?`, code,
	)
}

// ResolveAlbum returns the album id for (artistID, rec.Name). Album details are
// only written when the row is created.
func (db *DB) ResolveAlbum(ctx context.Context, rec *domain.AlbumRecord, artistID int64, publisherID, summaryID *int64) (int64, error) {
	return db.resolveOrCreate(ctx, "albums",
		`INSERT INTO albums (
			artist_id, name, page_link, details_link, purchase_link,
			release_date, track_count, publisher_id, summary_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING RETURNING id`,
		[]interface{}{
			artistID, rec.Name, rec.PageLink, rec.DetailsLink, rec.PurchaseLink,
			rec.ReleaseDate, rec.TrackCount, publisherID, summaryID,
		},
		`SELECT id FROM albums WHERE artist_id = ? AND name = ?`, artistID, rec.Name,
	)
}
