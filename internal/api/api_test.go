package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yonagi/kiroku/internal/blocks"
	"github.com/yonagi/kiroku/internal/index"
	"github.com/yonagi/kiroku/internal/testutil"
)

func testServer(t *testing.T, authEnabled bool, token string) (*httptest.Server, *index.DB) {
	t.Helper()
	db := testutil.TestDB(t)
	srv := httptest.NewServer(NewRouter(db, authEnabled, token, nil))
	t.Cleanup(srv.Close)
	return srv, db
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGetEntry(t *testing.T) {
	srv, db := testServer(t, false, "")
	if err := db.UpsertEntry(index.Entry{
		ThreadID:  "t1",
		PageID:    "p1",
		PageURL:   "https://notion.test/p1",
		Date:      "2024-03-15",
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	resp := get(t, srv.URL+"/entries/2024-03-15", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var entry EntryResponse
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.PageID != "p1" || entry.ThreadID != "t1" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestGetEntryBadDate(t *testing.T) {
	srv, _ := testServer(t, false, "")
	resp := get(t, srv.URL+"/entries/march-15", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetEntryNotFound(t *testing.T) {
	srv, _ := testServer(t, false, "")
	resp := get(t, srv.URL+"/entries/1999-01-01", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetMessageBlocks(t *testing.T) {
	srv, db := testServer(t, false, "")
	recs := []index.BlockRecord{
		{BlockID: "b1", Kind: blocks.KindText},
		{BlockID: "b2", Kind: blocks.KindBookmark},
	}
	if err := db.InsertMessageBlocks("m1", recs); err != nil {
		t.Fatalf("InsertMessageBlocks: %v", err)
	}

	resp := get(t, srv.URL+"/messages/m1/blocks", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		MessageID string                `json:"message_id"`
		Blocks    []BlockRecordResponse `json:"blocks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.MessageID != "m1" || len(body.Blocks) != 2 {
		t.Errorf("body = %+v", body)
	}
	if body.Blocks[1].Kind != "bookmark" || body.Blocks[1].Ordinal != 1 {
		t.Errorf("block 1 = %+v", body.Blocks[1])
	}
}

func TestGetMessageBlocksNotSynced(t *testing.T) {
	srv, _ := testServer(t, false, "")
	resp := get(t, srv.URL+"/messages/unknown/blocks", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, _ := testServer(t, true, "sekret")

	resp := get(t, srv.URL+"/entries/2024-03-15", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}

	resp = get(t, srv.URL+"/entries/2024-03-15", "wrong")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", resp.StatusCode)
	}

	resp = get(t, srv.URL+"/entries/2024-03-15", "sekret")
	if resp.StatusCode == http.StatusUnauthorized {
		t.Error("valid token rejected")
	}
}
