package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Store = (*Store)(nil)

// createChannelAttempts bounds CreateIfAbsent retries. A retry is only needed when
// a concurrent insert commits between our conflict check and our read.
const createChannelAttempts = 3

// Store implements driven.Store using PostgreSQL
type Store struct {
	db *DB
}

// NewStore creates a new Store
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// GetByExternalID retrieves a channel by its platform id
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (*domain.Channel, error) {
	query := `
		SELECT id, youtube_id, title, url, thumbnail_url
		FROM channels
		WHERE youtube_id = $1
	`

	var ch domain.Channel
	err := s.db.QueryRowContext(ctx, query, externalID).Scan(
		&ch.ID, &ch.ExternalID, &ch.Title, &ch.URL, &ch.ThumbnailURL,
	)
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
	query := `
		WITH inserted AS (
			INSERT INTO channels (youtube_id, title, url, thumbnail_url)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (youtube_id) DO NOTHING
			RETURNING id, youtube_id, title, url, thumbnail_url
		)
		SELECT id, youtube_id, title, url, thumbnail_url FROM inserted
		UNION ALL
		SELECT id, youtube_id, title, url, thumbnail_url FROM channels WHERE youtube_id = $1
		LIMIT 1
	`

	for attempt := 0; attempt < createChannelAttempts; attempt++ {
		var ch domain.Channel
		err := s.db.QueryRowContext(ctx, query,
			channel.ExternalID,
			channel.Title,
			channel.URL,
			channel.ThumbnailURL,
		).Scan(&ch.ID, &ch.ExternalID, &ch.Title, &ch.URL, &ch.ThumbnailURL)
		if errors.Is(err, sql.ErrNoRows) {
			// the conflicting row is not visible to this statement's snapshot yet
			continue
		}
		if err != nil {
			return nil, classify(err)
		}
		return &ch, nil
	}

	return nil, fmt.Errorf("%w: channel %s neither inserted nor found", domain.ErrStore, channel.ExternalID)
}

// SaveIngestion writes video, caption document and timestamps in one transaction
func (s *Store) SaveIngestion(ctx context.Context, ing *domain.Ingestion) (*domain.IngestionResult, error) {
	snippetsJSON, err := json.Marshal(ing.Snippets)
	if err != nil {
		return nil, fmt.Errorf("%w: encode snippets: %v", domain.ErrStore, err)
	}

	starts := make([]float64, len(ing.Snippets))
	durations := make([]float64, len(ing.Snippets))
	texts := make([]string, len(ing.Snippets))
	missing := make([]bool, len(ing.Snippets))
	for i, sn := range ing.Snippets {
		starts[i] = sn.Start
		durations[i] = sn.Duration
		texts[i] = sn.Text
		missing[i] = sn.MissingTiming
	}

	v := ing.Video
	var result domain.IngestionResult

	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO videos (youtube_id, channel_id, title, url, upload_datetime, views, duration_seconds, thumbnail_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`,
			v.ExternalID,
			v.ChannelID,
			v.Title,
			v.URL,
			NullTime(v.UploadTime),
			v.Views,
			v.DurationSeconds,
			v.ThumbnailURL,
		).Scan(&result.VideoID)
		if err != nil {
			return fmt.Errorf("insert video: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO captions (video_id, raw_text, snippets)
			VALUES ($1, $2, $3)
			RETURNING id
		`, result.VideoID, ing.RawText(), snippetsJSON).Scan(&result.CaptionID)
		if err != nil {
			return fmt.Errorf("insert caption: %w", err)
		}

		if len(ing.Snippets) == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO caption_timestamps (video_id, caption_id, position, start, duration, text, missing_timing)
			SELECT $1, $2, t.ord, t.start, t.duration, t.text, t.missing
			FROM unnest($3::float8[], $4::float8[], $5::text[], $6::bool[])
				WITH ORDINALITY AS t(start, duration, text, missing, ord)
		`,
			result.VideoID,
			result.CaptionID,
			pq.Array(starts),
			pq.Array(durations),
			pq.Array(texts),
			pq.Array(missing),
		)
		if err != nil {
			return fmt.Errorf("insert caption timestamps: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return &result, nil
}

const videoColumns = `v.id, v.youtube_id, v.channel_id, c.title, v.title, v.url,
	v.upload_datetime, v.views, v.duration_seconds, v.thumbnail_url`

func scanVideo(v *domain.Video, uploaded *sql.NullTime) []any {
	return []any{
		&v.ID, &v.ExternalID, &v.ChannelID, &v.ChannelTitle, &v.Title, &v.URL,
		uploaded, &v.Views, &v.DurationSeconds, &v.ThumbnailURL,
	}
}

// ListRecent returns the newest videos with the first previewChars characters of their captions
func (s *Store) ListRecent(ctx context.Context, limit, previewChars int) ([]*domain.VideoSummary, error) {
	query := `
		SELECT ` + videoColumns + `, LEFT(COALESCE(cap.raw_text, ''), $2)
		FROM videos v
		JOIN channels c ON c.id = v.channel_id
		LEFT JOIN captions cap ON cap.video_id = v.id
		ORDER BY v.id DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit, previewChars)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []*domain.VideoSummary
	for rows.Next() {
		var (
			sum      domain.VideoSummary
			uploaded sql.NullTime
		)
		dest := append(scanVideo(&sum.Video, &uploaded), &sum.CaptionPreview)
		if err := rows.Scan(dest...); err != nil {
			return nil, classify(err)
		}
		sum.UploadTime = TimePtr(uploaded)
		out = append(out, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// SearchCaptions runs a full-text match over caption timestamps
func (s *Store) SearchCaptions(ctx context.Context, q domain.CaptionQuery) ([]*domain.CaptionMatch, error) {
	query := `
		SELECT ` + videoColumns + `, ct.text, ct.start, ct.duration
		FROM caption_timestamps ct
		JOIN videos v ON v.id = ct.video_id
		JOIN channels c ON c.id = v.channel_id
		WHERE ct.text_search @@ to_tsquery('english', $1)
		ORDER BY v.upload_datetime DESC NULLS LAST, v.id DESC, ct.start ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, tsQuery(q.Terms), matchLimit(q.Limit))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	matches := make([]*domain.CaptionMatch, 0)
	for rows.Next() {
		var (
			m        domain.CaptionMatch
			uploaded sql.NullTime
		)
		dest := append(scanVideo(&m.Video, &uploaded), &m.Text, &m.Start, &m.Duration)
		if err := rows.Scan(dest...); err != nil {
			return nil, classify(err)
		}
		m.Video.UploadTime = TimePtr(uploaded)
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return matches, nil
}

// Ping checks if the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// tsQuery renders terms as a to_tsquery expression requiring every term.
// Each term is a quoted lexeme so operators typed by users stay literal.
func tsQuery(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		t = strings.ReplaceAll(t, `\`, `\\`)
		t = strings.ReplaceAll(t, `'`, `''`)
		quoted[i] = "'" + t + "'"
	}
	return strings.Join(quoted, " & ")
}

func matchLimit(limit int) int {
	if limit <= 0 {
		return domain.DefaultMatchLimit
	}
	if limit > domain.MaxMatchLimit {
		return domain.MaxMatchLimit
	}
	return limit
}
