package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Store = (*Store)(nil)

// Store implements driven.Store on SQLite with FTS5
type Store struct {
	db *DB
}

// NewStore creates a new Store
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// GetByExternalID retrieves a channel by its platform id
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (*domain.Channel, error) {
	return getChannel(ctx, s.db, externalID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getChannel(ctx context.Context, q queryer, externalID string) (*domain.Channel, error) {
	var ch domain.Channel
	err := q.QueryRowContext(ctx, `
		SELECT id, youtube_id, title, url, thumbnail_url
		FROM channels
		WHERE youtube_id = ?
	`, externalID).Scan(&ch.ID, &ch.ExternalID, &ch.Title, &ch.URL, &ch.ThumbnailURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &ch, nil
}

// CreateIfAbsent inserts the channel or returns the row that already holds its external id
func (s *Store) CreateIfAbsent(ctx context.Context, channel *domain.Channel) (*domain.Channel, error) {
	var stored *domain.Channel
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO channels (youtube_id, title, url, thumbnail_url)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(youtube_id) DO NOTHING
		`, channel.ExternalID, channel.Title, channel.URL, channel.ThumbnailURL)
		if err != nil {
			return err
		}
		stored, err = getChannel(ctx, tx, channel.ExternalID)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	return stored, nil
}

// SaveIngestion writes video, caption document and timestamps in one transaction
func (s *Store) SaveIngestion(ctx context.Context, ing *domain.Ingestion) (*domain.IngestionResult, error) {
	snippetsJSON, err := json.Marshal(ing.Snippets)
	if err != nil {
		return nil, fmt.Errorf("%w: encode snippets: %v", domain.ErrStore, err)
	}

	v := ing.Video
	var result domain.IngestionResult

	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO videos (youtube_id, channel_id, title, url, upload_unix, views, duration_seconds, thumbnail_url)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, v.ExternalID, v.ChannelID, v.Title, v.URL, unixOrNull(v.UploadTime), v.Views, v.DurationSeconds, v.ThumbnailURL)
		if err != nil {
			return fmt.Errorf("insert video: %w", err)
		}
		if result.VideoID, err = res.LastInsertId(); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `
			INSERT INTO captions (video_id, raw_text, snippets) VALUES (?, ?, ?)
		`, result.VideoID, ing.RawText(), string(snippetsJSON))
		if err != nil {
			return fmt.Errorf("insert caption: %w", err)
		}
		if result.CaptionID, err = res.LastInsertId(); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO caption_timestamps (video_id, caption_id, position, start, duration, text, missing_timing)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, sn := range ing.Snippets {
			if _, err := stmt.ExecContext(ctx, result.VideoID, result.CaptionID, i+1, sn.Start, sn.Duration, sn.Text, sn.MissingTiming); err != nil {
				return fmt.Errorf("insert caption timestamp %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return &result, nil
}

const videoColumns = `v.id, v.youtube_id, v.channel_id, c.title, v.title, v.url,
	v.upload_unix, v.views, v.duration_seconds, v.thumbnail_url`

func scanVideo(v *domain.Video, uploaded *sql.NullInt64) []any {
	return []any{
		&v.ID, &v.ExternalID, &v.ChannelID, &v.ChannelTitle, &v.Title, &v.URL,
		uploaded, &v.Views, &v.DurationSeconds, &v.ThumbnailURL,
	}
}

// ListRecent returns the newest videos with the first previewChars characters of their captions
func (s *Store) ListRecent(ctx context.Context, limit, previewChars int) ([]*domain.VideoSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+videoColumns+`, substr(COALESCE(cap.raw_text, ''), 1, ?)
		FROM videos v
		JOIN channels c ON c.id = v.channel_id
		LEFT JOIN captions cap ON cap.video_id = v.id
		ORDER BY v.id DESC
		LIMIT ?
	`, previewChars, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []*domain.VideoSummary
	for rows.Next() {
		var (
			sum      domain.VideoSummary
			uploaded sql.NullInt64
		)
		if err := rows.Scan(append(scanVideo(&sum.Video, &uploaded), &sum.CaptionPreview)...); err != nil {
			return nil, classify(err)
		}
		sum.UploadTime = timeOrNil(uploaded)
		out = append(out, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// SearchCaptions runs an FTS5 match over caption timestamps
func (s *Store) SearchCaptions(ctx context.Context, q domain.CaptionQuery) ([]*domain.CaptionMatch, error) {
	limit := q.Limit
	if limit <= 0 || limit > domain.MaxMatchLimit {
		limit = domain.DefaultMatchLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+videoColumns+`, ct.text, ct.start, ct.duration
		FROM caption_timestamps_fts fts
		JOIN caption_timestamps ct ON ct.id = fts.rowid
		JOIN videos v ON v.id = ct.video_id
		JOIN channels c ON c.id = v.channel_id
		WHERE caption_timestamps_fts MATCH ?
		ORDER BY v.upload_unix DESC NULLS LAST, v.id DESC, ct.start ASC
		LIMIT ?
	`, matchExpression(q.Terms), limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	matches := make([]*domain.CaptionMatch, 0)
	for rows.Next() {
		var (
			m        domain.CaptionMatch
			uploaded sql.NullInt64
		)
		if err := rows.Scan(append(scanVideo(&m.Video, &uploaded), &m.Text, &m.Start, &m.Duration)...); err != nil {
			return nil, classify(err)
		}
		m.Video.UploadTime = timeOrNil(uploaded)
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return matches, nil
}

// Ping checks if the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return classify(s.db.PingContext(ctx))
}

// matchExpression renders terms as an FTS5 query requiring every term.
// Terms are quoted strings so FTS5 operators and column filters stay literal.
func matchExpression(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " AND ")
}

func unixOrNull(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timeOrNil(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0).UTC()
	return &t
}
