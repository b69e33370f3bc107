package index

// DiaryIndex defines the index operations the syncer and API depend on.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type DiaryIndex interface {
	InsertMessageBlocks(messageID string, recs []BlockRecord) error
	MessageBlocks(messageID string) ([]BlockRecord, error)
	DeleteMessageBlock(messageID string, ordinal int) error
	DeleteMessageBlocks(messageID string) error
	UpsertEntry(e Entry) error
	EntryByThread(threadID string) (*Entry, error)
	EntryByDate(date string) (*Entry, error)
	Close() error
}

// Verify *DB satisfies DiaryIndex at compile time.
var _ DiaryIndex = (*DB)(nil)
