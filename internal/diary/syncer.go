package diary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yonagi/kiroku/internal/apperr"
	"github.com/yonagi/kiroku/internal/blocks"
	"github.com/yonagi/kiroku/internal/index"
	"github.com/yonagi/kiroku/internal/urlrule"
)

// SyncerConfig wires a Syncer's collaborators.
type SyncerConfig struct {
	Doc      DocumentClient
	Index    index.DiaryIndex
	Rules    *urlrule.Rules
	Download Downloader
	Convert  ConvertFunc
	Caption  CaptionFunc // nil disables bookmark captions
	Location *time.Location
	Logger   *slog.Logger
}

// Syncer drives the create/update/delete lifecycle of message blocks.
// Remote calls within one message's flow are issued sequentially so the
// document never shows partially ordered content.
type Syncer struct {
	doc      DocumentClient
	idx      index.DiaryIndex
	rules    *urlrule.Rules
	download Downloader
	convert  ConvertFunc
	caption  CaptionFunc
	loc      *time.Location
	logger   *slog.Logger
}

// NewSyncer creates a Syncer. A nil Location defaults to time.Local.
func NewSyncer(cfg SyncerConfig) *Syncer {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Syncer{
		doc:      cfg.Doc,
		idx:      cfg.Index,
		rules:    cfg.Rules,
		download: cfg.Download,
		convert:  cfg.Convert,
		caption:  cfg.Caption,
		loc:      loc,
		logger:   cfg.Logger,
	}
}

// EnsurePage resolves the document page a thread writes into, creating the
// page and the index binding on first use. Pages are titled with the calendar
// date in the configured timezone.
func (s *Syncer) EnsurePage(ctx context.Context, threadID string, now time.Time) (*index.Entry, error) {
	if entry, err := s.idx.EntryByThread(threadID); err == nil {
		return entry, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	date := now.In(s.loc).Format(index.DateFormat)

	// Another thread may already be bound to today's page; reuse it.
	if existing, err := s.idx.EntryByDate(date); err == nil {
		entry := index.Entry{
			ThreadID:  threadID,
			PageID:    existing.PageID,
			PageURL:   existing.PageURL,
			Date:      date,
			CreatedAt: now,
		}
		if err := s.idx.UpsertEntry(entry); err != nil {
			return nil, err
		}
		return &entry, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	page, err := s.doc.FindPageByTitle(ctx, date)
	if errors.Is(err, apperr.ErrNotFound) {
		page, err = s.doc.CreatePage(ctx, date)
		if err == nil {
			s.logger.Info("diary page created", slog.String("date", date), slog.String("page_id", page.ID))
		}
	}
	if err != nil {
		return nil, err
	}

	entry := index.Entry{
		ThreadID:  threadID,
		PageID:    page.ID,
		PageURL:   page.URL,
		Date:      date,
		CreatedAt: now,
	}
	if err := s.idx.UpsertEntry(entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create syncs a message for the first time: attachments resolve to blocks,
// text assembles to blocks, the whole batch is written in one remote call,
// and the returned ids are persisted atomically. Any remote failure aborts
// the create with no index write.
func (s *Syncer) Create(ctx context.Context, msg Message) (Result, error) {
	if msg.Content == "" && len(msg.Attachments) == 0 {
		return Skipped, nil
	}

	entry, err := s.EnsurePage(ctx, msg.ThreadID, time.Now())
	if err != nil {
		return Skipped, fmt.Errorf("resolve diary page: %w", err)
	}

	// Attachments first, then text-derived blocks.
	var batch []blocks.Block
	for _, att := range msg.Attachments {
		resolved, err := s.resolveAttachment(ctx, att)
		if err != nil {
			return Skipped, err
		}
		batch = append(batch, resolved...)
	}

	textBlocks := blocks.Assemble(msg.Content, s.rules.Load())
	if s.caption != nil {
		for i := range textBlocks {
			if textBlocks[i].Kind == blocks.KindBookmark {
				textBlocks[i].Caption = s.caption(ctx, textBlocks[i].URL)
			}
		}
	}
	batch = append(batch, textBlocks...)

	if len(batch) == 0 {
		return Skipped, nil
	}

	ids, err := s.doc.AppendBlocks(ctx, entry.PageID, batch)
	if err != nil {
		return Skipped, err
	}

	recs := make([]index.BlockRecord, len(batch))
	for i, b := range batch {
		recs[i] = index.BlockRecord{
			MessageID: msg.ID,
			BlockID:   ids[i],
			Kind:      b.Kind,
			Ordinal:   i,
		}
	}
	if err := s.idx.InsertMessageBlocks(msg.ID, recs); err != nil {
		return Skipped, err
	}

	s.logger.Info("message synced",
		slog.String("message_id", msg.ID),
		slog.Int("blocks", len(batch)))
	return Synced, nil
}

// Update re-assembles the message text and rewrites only the text-kind remote
// blocks, matched positionally against the recorded text blocks. Non-text
// blocks are left untouched. Per-block failures are collected and do not stop
// the remaining updates.
func (s *Syncer) Update(ctx context.Context, msg Message) (Result, error) {
	recs, err := s.idx.MessageBlocks(msg.ID)
	if err != nil {
		return NotSynced, err
	}
	if len(recs) == 0 {
		return NotSynced, nil
	}

	var textRecs []index.BlockRecord
	for _, r := range recs {
		if r.Kind.Mutable() {
			textRecs = append(textRecs, r)
		}
	}

	var textBlocks []blocks.Block
	for _, b := range blocks.Assemble(msg.Content, s.rules.Load()) {
		if b.Kind == blocks.KindText {
			textBlocks = append(textBlocks, b)
		}
	}

	n := len(textRecs)
	if len(textBlocks) < n {
		n = len(textBlocks)
	}
	if len(textBlocks) != len(textRecs) {
		// Accepted limitation: edits never add or remove remote blocks.
		s.logger.Debug("update: text block count changed, extra content ignored",
			slog.String("message_id", msg.ID),
			slog.Int("recorded", len(textRecs)),
			slog.Int("assembled", len(textBlocks)))
	}

	var errs []error
	updated := 0
	for i := 0; i < n; i++ {
		if err := s.doc.UpdateTextBlock(ctx, textRecs[i].BlockID, textBlocks[i].Spans); err != nil {
			s.logger.Warn("update: block update failed",
				slog.String("message_id", msg.ID),
				slog.String("block_id", textRecs[i].BlockID),
				slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		updated++
	}

	s.logger.Info("message updated",
		slog.String("message_id", msg.ID),
		slog.Int("updated", updated),
		slog.Int("failed", len(errs)))
	return Synced, errors.Join(errs...)
}

// Delete removes every remote block recorded for the message, best-effort.
// When every remote delete succeeds the records go in one bulk delete;
// otherwise records are dropped per succeeded block, so a failed delete
// leaves its record behind for reconciliation.
func (s *Syncer) Delete(ctx context.Context, messageID string) (Result, error) {
	recs, err := s.idx.MessageBlocks(messageID)
	if err != nil {
		return NotSynced, err
	}
	if len(recs) == 0 {
		return NotSynced, nil
	}

	var errs []error
	var removed []int
	for _, r := range recs {
		if err := s.doc.DeleteBlock(ctx, r.BlockID); err != nil {
			s.logger.Warn("delete: block delete failed",
				slog.String("message_id", messageID),
				slog.String("block_id", r.BlockID),
				slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		removed = append(removed, r.Ordinal)
	}

	if len(errs) == 0 {
		if err := s.idx.DeleteMessageBlocks(messageID); err != nil {
			errs = append(errs, err)
		}
	} else {
		// Partial failure: drop only the records whose remote block is gone,
		// so the rest stay behind for reconciliation.
		for _, ord := range removed {
			if err := s.idx.DeleteMessageBlock(messageID, ord); err != nil {
				errs = append(errs, err)
			}
		}
	}

	s.logger.Info("message deleted",
		slog.String("message_id", messageID),
		slog.Int("deleted", len(removed)),
		slog.Int("failed", len(errs)))
	return Synced, errors.Join(errs...)
}
