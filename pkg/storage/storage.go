// Package storage keeps uploaded applicant files.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"applicant-api-io/api/internal/worker"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/util"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FileStorage stores files and removes them by URL. DeleteByURL is best
// effort: it reports success and logs failures instead of returning them.
type FileStorage interface {
	Store(ctx context.Context, r io.Reader, filename string, c Constraints) (models.FileRef, error)
	DeleteByURL(ctx context.Context, url string) bool
}

var (
	ImageTypes    = []string{"image/jpeg", "image/png"}
	DocumentTypes = []string{
		"image/jpeg",
		"image/png",
		"image/webp",
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/x-ole-storage",
	}
)

// Constraints limit what a stored file may be.
type Constraints struct {
	MaxSize int64
	Allowed []string
	Folder  string
}

func (c Constraints) allows(m *mimetype.MIME) bool {
	if len(c.Allowed) == 0 {
		return true
	}
	for mt := m; mt != nil; mt = mt.Parent() {
		for _, a := range c.Allowed {
			if mt.Is(a) {
				return true
			}
		}
	}
	return false
}

// Read loads r fully, rejecting it if it is too large or of the wrong type.
func (c Constraints) Read(r io.Reader) ([]byte, *mimetype.MIME, error) {
	limit := c.MaxSize
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, nil, errors.Wrap(err, "read upload")
	}
	if int64(len(data)) > limit {
		return nil, nil, util.BadRequest(fmt.Sprintf("File too large. Maximum size is %s", humanSize(limit)))
	}
	if len(data) == 0 {
		return nil, nil, util.BadRequest("File is empty")
	}

	m := mimetype.Detect(data)
	if !c.allows(m) {
		return nil, nil, util.BadRequest(fmt.Sprintf("File type %s is not allowed", m.String()))
	}
	return data, m, nil
}

func humanSize(n int64) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%dKB", n>>10)
}

// NewPublicID builds a readable, unique storage name for filename.
func NewPublicID(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name := slug.Make(base)
	if name == "" {
		name = "file"
	}
	if len(name) > 60 {
		name = name[:60]
	}
	return name + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// IsImage reports whether the detected type is rendered as an image.
func IsImage(m *mimetype.MIME) bool {
	return strings.HasPrefix(m.String(), "image/")
}

// Enqueuer accepts background jobs.
type Enqueuer interface {
	Enqueue(job worker.Job) bool
}

// Deferred removes files in the background so requests never wait on, or
// fail because of, storage cleanup.
type Deferred struct {
	store FileStorage
	queue Enqueuer
}

func NewDeferred(store FileStorage, queue Enqueuer) *Deferred {
	return &Deferred{store: store, queue: queue}
}

// DeleteLater schedules the removal of every non-empty URL.
func (d *Deferred) DeleteLater(urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		url := u
		d.queue.Enqueue(worker.Job{
			Type: "file.delete",
			Run: func(ctx context.Context) error {
				if !d.store.DeleteByURL(ctx, url) {
					return errors.Errorf("could not delete %s", url)
				}
				return nil
			},
		})
	}
}

// DeleteNow removes files inline, ignoring failures. Used to discard uploads
// of a request that is about to fail.
func DeleteNow(ctx context.Context, store FileStorage, refs ...models.FileRef) {
	for _, ref := range refs {
		if ref.URL == "" {
			continue
		}
		if !store.DeleteByURL(ctx, ref.URL) {
			util.LogWarning("orphaned upload left in storage", zap.String("url", ref.URL))
		}
	}
}
