package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/onnwee/livechat-viewer/chat"
	"github.com/onnwee/livechat-viewer/telemetry"
)

// Archive persists merged chat messages. It implements chat.Sink. The API key
// is never passed here.
type Archive struct{ DB *sql.DB }

var _ chat.Sink = (*Archive)(nil)

// Archive inserts msgs for chatID in one transaction, skipping ids already
// stored.
func (a *Archive) Archive(ctx context.Context, videoID, chatID string, msgs []chat.Message) (err error) {
	defer func() { telemetry.RecordArchive(err) }()
	if len(msgs) == 0 {
		return nil
	}
	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				slog.WarnContext(ctx, "archive rollback failed", slog.Any("err", rbErr), slog.String("component", "archive"))
			}
		}
	}()
	for _, m := range msgs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO chat_messages (message_id, chat_id, video_id, author, message, published_at)
			 VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (message_id) DO NOTHING`,
			m.ID, chatID, videoID, m.Author, m.Text, nullTime(m.PublishedAt)); err != nil {
			return fmt.Errorf("archive insert %s: %w", m.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("archive commit: %w", err)
	}
	return nil
}

// Recent returns up to limit archived messages for chatID, newest first.
func (a *Archive) Recent(ctx context.Context, chatID string, limit int) ([]chat.Message, error) {
	if limit <= 0 || limit > 1000 {
		limit = chat.MaxMessages
	}
	rows, err := a.DB.QueryContext(ctx,
		`SELECT message_id, author, message, published_at FROM chat_messages
		 WHERE chat_id=$1 ORDER BY published_at DESC NULLS LAST, received_at DESC LIMIT $2`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close rows", slog.Any("err", err))
		}
	}()
	out := make([]chat.Message, 0)
	for rows.Next() {
		var m chat.Message
		var published sql.NullTime
		if err := rows.Scan(&m.ID, &m.Author, &m.Text, &published); err != nil {
			return nil, err
		}
		if published.Valid {
			m.PublishedAt = published.Time
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Ping reports archive connectivity for readiness checks.
func (a *Archive) Ping(ctx context.Context) error { return a.DB.PingContext(ctx) }

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
