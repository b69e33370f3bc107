package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/yonagi/kiroku/internal/apperr"
	"github.com/yonagi/kiroku/internal/blocks"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "kiroku-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM message_blocks`).Scan(&count); err != nil {
		t.Fatalf("message_blocks table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM diary_entries`).Scan(&count); err != nil {
		t.Fatalf("diary_entries table missing: %v", err)
	}
}

func TestInsertAndLookupMessageBlocks(t *testing.T) {
	db := testDB(t)
	recs := []BlockRecord{
		{BlockID: "b1", Kind: blocks.KindText},
		{BlockID: "b2", Kind: blocks.KindBookmark},
		{BlockID: "b3", Kind: blocks.KindText},
	}
	if err := db.InsertMessageBlocks("msg1", recs); err != nil {
		t.Fatalf("InsertMessageBlocks: %v", err)
	}

	got, err := db.MessageBlocks("msg1")
	if err != nil {
		t.Fatalf("MessageBlocks: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for i, r := range got {
		if r.Ordinal != i {
			t.Errorf("record %d ordinal = %d, want %d", i, r.Ordinal, i)
		}
	}
	if got[1].Kind != blocks.KindBookmark {
		t.Errorf("record 1 kind = %q, want bookmark", got[1].Kind)
	}
}

func TestInsertMessageBlocksAssignsOrdinalsFromPosition(t *testing.T) {
	db := testDB(t)
	recs := []BlockRecord{
		{BlockID: "b1", Kind: blocks.KindText, Ordinal: 7},
		{BlockID: "b2", Kind: blocks.KindText, Ordinal: 3},
	}
	if err := db.InsertMessageBlocks("msg1", recs); err != nil {
		t.Fatalf("InsertMessageBlocks: %v", err)
	}

	got, err := db.MessageBlocks("msg1")
	if err != nil {
		t.Fatalf("MessageBlocks: %v", err)
	}
	if got[0].BlockID != "b1" || got[0].Ordinal != 0 {
		t.Errorf("record 0 = %+v, want b1 at ordinal 0", got[0])
	}
	if got[1].BlockID != "b2" || got[1].Ordinal != 1 {
		t.Errorf("record 1 = %+v, want b2 at ordinal 1", got[1])
	}
}

func TestMessageBlocksUnsynced(t *testing.T) {
	db := testDB(t)
	got, err := db.MessageBlocks("never-seen")
	if err != nil {
		t.Fatalf("MessageBlocks: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}

func TestInsertMessageBlocksEmpty(t *testing.T) {
	db := testDB(t)
	if err := db.InsertMessageBlocks("msg", nil); err != nil {
		t.Fatalf("InsertMessageBlocks(nil): %v", err)
	}
}

func TestDeleteMessageBlock(t *testing.T) {
	db := testDB(t)
	recs := []BlockRecord{
		{BlockID: "b1", Kind: blocks.KindText},
		{BlockID: "b2", Kind: blocks.KindEmbed},
	}
	if err := db.InsertMessageBlocks("msg1", recs); err != nil {
		t.Fatalf("InsertMessageBlocks: %v", err)
	}

	if err := db.DeleteMessageBlock("msg1", 0); err != nil {
		t.Fatalf("DeleteMessageBlock: %v", err)
	}
	got, err := db.MessageBlocks("msg1")
	if err != nil {
		t.Fatalf("MessageBlocks: %v", err)
	}
	if len(got) != 1 || got[0].BlockID != "b2" {
		t.Errorf("remaining = %+v, want just b2", got)
	}
}

func TestDeleteMessageBlocks(t *testing.T) {
	db := testDB(t)
	_ = db.InsertMessageBlocks("msg1", []BlockRecord{{BlockID: "b1", Kind: blocks.KindText}})
	_ = db.InsertMessageBlocks("msg2", []BlockRecord{{BlockID: "b2", Kind: blocks.KindText}})

	if err := db.DeleteMessageBlocks("msg1"); err != nil {
		t.Fatalf("DeleteMessageBlocks: %v", err)
	}
	got, _ := db.MessageBlocks("msg1")
	if len(got) != 0 {
		t.Errorf("msg1 records = %d, want 0", len(got))
	}
	got, _ = db.MessageBlocks("msg2")
	if len(got) != 1 {
		t.Errorf("msg2 records = %d, want 1 (untouched)", len(got))
	}
}

func TestUpsertEntry(t *testing.T) {
	db := testDB(t)
	e := Entry{
		ThreadID:  "thread1",
		PageID:    "page1",
		PageURL:   "https://notion.test/page1",
		Date:      "2024-03-15",
		CreatedAt: time.Now(),
	}
	if err := db.UpsertEntry(e); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	got, err := db.EntryByThread("thread1")
	if err != nil {
		t.Fatalf("EntryByThread: %v", err)
	}
	if got.PageID != "page1" || got.Date != "2024-03-15" {
		t.Errorf("entry = %+v", got)
	}

	// Rebinding the same thread replaces the page.
	e.PageID = "page2"
	e.Date = "2024-03-16"
	if err := db.UpsertEntry(e); err != nil {
		t.Fatalf("UpsertEntry (rebind): %v", err)
	}
	got, err = db.EntryByThread("thread1")
	if err != nil {
		t.Fatalf("EntryByThread: %v", err)
	}
	if got.PageID != "page2" || got.Date != "2024-03-16" {
		t.Errorf("rebound entry = %+v", got)
	}
}

func TestEntryByDate(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntry(Entry{ThreadID: "t1", PageID: "p1", Date: "2024-03-15", CreatedAt: time.Now()})

	got, err := db.EntryByDate("2024-03-15")
	if err != nil {
		t.Fatalf("EntryByDate: %v", err)
	}
	if got.ThreadID != "t1" {
		t.Errorf("thread = %q, want t1", got.ThreadID)
	}
}

func TestEntryNotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.EntryByThread("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("EntryByThread error = %v, want ErrNotFound", err)
	}
	if _, err := db.EntryByDate("1999-01-01"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("EntryByDate error = %v, want ErrNotFound", err)
	}
}
