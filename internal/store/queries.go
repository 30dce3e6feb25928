package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cesargomez89/topalbums/internal/domain"
)

func (db *DB) ListCharts(ctx context.Context) ([]domain.Chart, error) {
	var charts []domain.Chart
	err := db.SelectContext(ctx, &charts,
		`SELECT id, filter_method, year, sort_method FROM charts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list charts: %w", err)
	}
	return charts, nil
}

func (db *DB) GetChart(ctx context.Context, id int64) (*domain.Chart, error) {
	var chart domain.Chart
	err := db.GetContext(ctx, &chart, db.Rebind(
		`SELECT id, filter_method, year, sort_method FROM charts WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chart %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get chart %d: %w", id, err)
	}
	return &chart, nil
}

func (db *DB) CountChartHistory(ctx context.Context, chartID int64) (int, error) {
	var n int
	err := db.GetContext(ctx, &n, db.Rebind(`SELECT COUNT(*) FROM chart_history WHERE chart_id = ?`), chartID)
	if err != nil {
		return 0, fmt.Errorf("count history for chart %d: %w", chartID, err)
	}
	return n, nil
}

const historyRowColumns = `
	h.id, h.scraped_at, h.chart_id, h.album_id, h.album_rank, h.metascore,
	h.user_score, h.critic_reviews, h.user_reviews,
	a.name AS album_name, ar.name AS artist_name`

// ListChartHistory returns the history rows of one chart, newest first.
// A limit of zero or less returns every row.
func (db *DB) ListChartHistory(ctx context.Context, chartID int64, limit, offset int) ([]domain.HistoryRow, error) {
	query := `SELECT` + historyRowColumns + `
		FROM chart_history h
		JOIN albums a ON a.id = h.album_id
		JOIN artists ar ON ar.id = a.artist_id
		WHERE h.chart_id = ?
		ORDER BY h.id DESC`
	args := []interface{}{chartID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	var rows []domain.HistoryRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list history for chart %d: %w", chartID, err)
	}
	return rows, nil
}

// GetAlbumDetail loads an album together with its dimensions, links and history.
func (db *DB) GetAlbumDetail(ctx context.Context, id int64) (*domain.AlbumDetail, error) {
	var detail domain.AlbumDetail
	err := db.GetContext(ctx, &detail.Album, db.Rebind(`
		SELECT id, name, page_link, details_link, purchase_link, release_date,
			track_count, artist_id, publisher_id, summary_id
		FROM albums WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("album %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get album %d: %w", id, err)
	}

	if err := db.GetContext(ctx, &detail.Artist, db.Rebind(
		`SELECT id, name, profile_link, popularity, followers FROM artists WHERE id = ?`),
		detail.ArtistID); err != nil {
		return nil, fmt.Errorf("get artist %d: %w", detail.ArtistID, err)
	}

	if detail.PublisherID != nil {
		var p domain.Publisher
		if err := db.GetContext(ctx, &p, db.Rebind(
			`SELECT id, name, profile_link FROM publishers WHERE id = ?`), *detail.PublisherID); err != nil {
			return nil, fmt.Errorf("get publisher %d: %w", *detail.PublisherID, err)
		}
		detail.Publisher = &p
	}

	if detail.SummaryID != nil {
		var s domain.Summary
		if err := db.GetContext(ctx, &s, db.Rebind(
			`SELECT id, summary FROM summaries WHERE id = ?`), *detail.SummaryID); err != nil {
			return nil, fmt.Errorf("get summary %d: %w", *detail.SummaryID, err)
		}
		detail.Summary = &s
	}

	detail.Genres = []string{}
	if err := db.SelectContext(ctx, &detail.Genres, db.Rebind(`
		SELECT g.name FROM genres g
		JOIN album_genres ag ON ag.genre_id = g.id
		WHERE ag.album_id = ? ORDER BY g.name`), id); err != nil {
		return nil, fmt.Errorf("list genres for album %d: %w", id, err)
	}

	detail.Markets = []string{}
	if err := db.SelectContext(ctx, &detail.Markets, db.Rebind(`
		SELECT m.code FROM markets m
		JOIN album_markets am ON am.market_id = m.id
		WHERE am.album_id = ? ORDER BY m.code`), id); err != nil {
		return nil, fmt.Errorf("list markets for album %d: %w", id, err)
	}

	detail.History = []domain.ChartHistory{}
	if err := db.SelectContext(ctx, &detail.History, db.Rebind(`
		SELECT id, scraped_at, chart_id, album_id, album_rank, metascore,
			user_score, critic_reviews, user_reviews
		FROM chart_history WHERE album_id = ? ORDER BY id`), id); err != nil {
		return nil, fmt.Errorf("list history for album %d: %w", id, err)
	}

	return &detail, nil
}

func (db *DB) GetArtistByName(ctx context.Context, name string) (*domain.Artist, error) {
	var a domain.Artist
	err := db.GetContext(ctx, &a, db.Rebind(
		`SELECT id, name, profile_link, popularity, followers FROM artists WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artist %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get artist %q: %w", name, err)
	}
	return &a, nil
}
