package archive

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yapchat/yap/internal/store"
)

// Append stores one message for a room. Idempotent on (room, msg_id): a
// message archived twice — once from the send path, once from a later
// replay of the relay's own history — stays a single record.
func (db *DB) Append(ctx context.Context, room string, m *store.Message) error {
	now := time.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO records (msg_id, room, author, content, image, reply_to, reply_to_author, reply_to_content, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(room, msg_id) DO NOTHING`,
		m.ID, room, m.Author, m.Content, m.Image, m.ReplyTo, m.ReplyToAuthor, m.ReplyToContent, m.Timestamp, now)
	return err
}

// FetchRecent returns up to limit records for a room, oldest first, carrying
// the same fields as a message event. Edited/ReadBy are not archived; the
// replay can therefore never regress state the live session accumulated.
func (db *DB) FetchRecent(ctx context.Context, room string, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := db.QueryContext(ctx, `
		SELECT msg_id, author, content, image, reply_to, reply_to_author, reply_to_content, timestamp
		FROM records
		WHERE room = ?
		ORDER BY timestamp ASC, created_at ASC
		LIMIT ?`, room, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []*store.Message
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.Author, &m.Content, &m.Image, &m.ReplyTo, &m.ReplyToAuthor, &m.ReplyToContent, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// LogJoin records a successful room join for auditing.
func (db *DB) LogJoin(ctx context.Context, name, room string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO logins (id, name, room, joined_at)
		VALUES (?, ?, ?, ?)`,
		uuid.NewString(), name, room, time.Now().UnixMilli())
	return err
}
