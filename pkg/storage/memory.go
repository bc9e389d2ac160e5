package storage

import (
	"context"
	"io"
	"sync"

	"applicant-api-io/api/internal/worker"
	"applicant-api-io/api/pkg/models"
)

// Memory is an in-process FileStorage used by tests and local runs.
type Memory struct {
	mu       sync.Mutex
	files    map[string][]byte
	deleted  []string
	FailNext error
}

func NewMemory() *Memory {
	return &Memory{files: map[string][]byte{}}
}

func (m *Memory) Store(ctx context.Context, r io.Reader, filename string, c Constraints) (models.FileRef, error) {
	data, _, err := c.Read(r)
	if err != nil {
		return models.FileRef{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext != nil {
		err, m.FailNext = m.FailNext, nil
		return models.FileRef{}, err
	}
	url := "https://files.local/" + NewPublicID(filename)
	m.files[url] = data
	return models.FileRef{Name: filename, URL: url}, nil
}

func (m *Memory) DeleteByURL(ctx context.Context, url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[url]; !ok {
		return false
	}
	delete(m.files, url)
	m.deleted = append(m.deleted, url)
	return true
}

// Has reports whether url is currently stored.
func (m *Memory) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[url]
	return ok
}

// Count returns the number of stored files.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Deleted returns the URLs removed so far.
func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Seed stores a file under a fixed URL.
func (m *Memory) Seed(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[url] = []byte("seed")
}

// Inline runs jobs on the calling goroutine. Tests use it in place of the
// worker pool so deferred deletions are observable immediately.
type Inline struct{}

func (Inline) Enqueue(job worker.Job) bool {
	_ = job.Run(context.Background())
	return true
}
