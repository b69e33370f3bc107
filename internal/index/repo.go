package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yonagi/kiroku/internal/apperr"
	"github.com/yonagi/kiroku/internal/blocks"
)

// DateFormat is how entry dates are stored and queried.
const DateFormat = "2006-01-02"

// BlockRecord maps one remote block back to the message that produced it.
// Ordinal is the block's position within the message's batch.
type BlockRecord struct {
	MessageID string
	BlockID   string
	Kind      blocks.Kind
	Ordinal   int
}

// Entry binds a chat thread to a document page for one calendar date.
type Entry struct {
	ThreadID  string
	PageID    string
	PageURL   string
	Date      string // DateFormat
	CreatedAt time.Time
}

// InsertMessageBlocks persists the full record set for one message in a
// single transaction: either every record lands or none do. Ordinals are
// assigned from slice position; any Ordinal value on the records is ignored.
func (db *DB) InsertMessageBlocks(messageID string, recs []BlockRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.Prepare(`INSERT INTO message_blocks (message_id, block_id, block_kind, ordinal) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare block insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range recs {
		if _, err := stmt.Exec(messageID, r.BlockID, string(r.Kind), i); err != nil {
			return fmt.Errorf("index: insert block record: %w", err)
		}
	}

	return tx.Commit()
}

// MessageBlocks returns the records for a message ordered by ordinal. An
// unsynced message yields an empty slice, not an error.
func (db *DB) MessageBlocks(messageID string) ([]BlockRecord, error) {
	rows, err := db.conn.Query(`
		SELECT block_id, block_kind, ordinal
		FROM message_blocks
		WHERE message_id = ?
		ORDER BY ordinal
	`, messageID)
	if err != nil {
		return nil, fmt.Errorf("index: message blocks: %w", err)
	}
	defer rows.Close()

	var out []BlockRecord
	for rows.Next() {
		r := BlockRecord{MessageID: messageID}
		var kind string
		if err := rows.Scan(&r.BlockID, &kind, &r.Ordinal); err != nil {
			return nil, err
		}
		r.Kind = blocks.Kind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteMessageBlock removes the single record at ordinal for a message.
// Used by best-effort deletes so records whose remote block could not be
// removed stay behind for reconciliation.
func (db *DB) DeleteMessageBlock(messageID string, ordinal int) error {
	if _, err := db.conn.Exec(`DELETE FROM message_blocks WHERE message_id = ? AND ordinal = ?`, messageID, ordinal); err != nil {
		return fmt.Errorf("index: delete block record: %w", err)
	}
	return nil
}

// DeleteMessageBlocks removes every record for a message.
func (db *DB) DeleteMessageBlocks(messageID string) error {
	if _, err := db.conn.Exec(`DELETE FROM message_blocks WHERE message_id = ?`, messageID); err != nil {
		return fmt.Errorf("index: delete block records: %w", err)
	}
	return nil
}

// UpsertEntry inserts a diary entry, or refreshes page id, url, and date when
// the thread is already bound.
func (db *DB) UpsertEntry(e Entry) error {
	_, err := db.conn.Exec(`
		INSERT INTO diary_entries (thread_id, page_id, page_url, date, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			page_id  = excluded.page_id,
			page_url = excluded.page_url,
			date     = excluded.date
	`, e.ThreadID, e.PageID, e.PageURL, e.Date, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert entry: %w", err)
	}
	return nil
}

// EntryByThread returns the entry bound to a thread, or apperr.ErrNotFound.
func (db *DB) EntryByThread(threadID string) (*Entry, error) {
	return db.entry(`SELECT thread_id, page_id, page_url, date, created_at FROM diary_entries WHERE thread_id = ?`, threadID)
}

// EntryByDate returns the entry for a calendar date, or apperr.ErrNotFound.
func (db *DB) EntryByDate(date string) (*Entry, error) {
	return db.entry(`SELECT thread_id, page_id, page_url, date, created_at FROM diary_entries WHERE date = ?`, date)
}

func (db *DB) entry(query, arg string) (*Entry, error) {
	var e Entry
	err := db.conn.QueryRow(query, arg).Scan(&e.ThreadID, &e.PageID, &e.PageURL, &e.Date, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: entry lookup: %w", err)
	}
	return &e, nil
}
