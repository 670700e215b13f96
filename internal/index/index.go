package index

// CardIndex defines the interface for card indexing operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type CardIndex interface {
	UpsertCard(c CardRow, body string, embeds []string) error
	DeleteCard(path string) error
	GetCard(path string) (*CardRow, error)
	GetChecksum(path string) (string, error)
	ListCards(q ListQuery) ([]CardRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	EmbedSources(target string) ([]string, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies CardIndex at compile time.
var _ CardIndex = (*DB)(nil)
