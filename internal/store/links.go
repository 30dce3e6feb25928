package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cesargomez89/topalbums/internal/domain"
)

var ErrUnknownLinkTable = errors.New("unknown link table")

// LinkTable names an album many-to-many association table.
type LinkTable string

const (
	LinkGenres  LinkTable = "album_genres"
	LinkMarkets LinkTable = "album_markets"
)

func (t LinkTable) column() (string, error) {
	switch t {
	case LinkGenres:
		return "genre_id", nil
	case LinkMarkets:
		return "market_id", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLinkTable, string(t))
	}
}

// EnsureLinks associates albumID with every id in ids, skipping pairs that are
// already linked. Repeated ids are fine. It returns how many links were created.
func (db *DB) EnsureLinks(ctx context.Context, albumID int64, ids []int64, table LinkTable) (int, error) {
	col, err := table.column()
	if err != nil {
		return 0, err
	}

	query := db.Rebind(fmt.Sprintf(
		`INSERT INTO %s (album_id, %s) VALUES (?, ?) ON CONFLICT DO NOTHING`, table, col,
	))

	created := 0
	for _, id := range ids {
		res, err := db.ExecContext(ctx, query, albumID, id)
		if err != nil {
			return created, fmt.Errorf("link album %d in %s: %w", albumID, table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return created, fmt.Errorf("link album %d in %s: %w", albumID, table, err)
		}
		created += int(n)
	}
	return created, nil
}

// AppendHistory always inserts a new chart_history row; scraped_at comes from the store clock.
func (db *DB) AppendHistory(ctx context.Context, e domain.HistoryEntry) (int64, error) {
	var id int64
	err := db.GetContext(ctx, &id, db.Rebind(`
		INSERT INTO chart_history (
			chart_id, album_id, album_rank, metascore, user_score, critic_reviews, user_reviews
		) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		e.ChartID, e.AlbumID, e.Rank, e.Metascore, e.UserScore, e.CriticReviews, e.UserReviews,
	)
	if err != nil {
		return 0, fmt.Errorf("append history for album %d: %w", e.AlbumID, err)
	}
	return id, nil
}
