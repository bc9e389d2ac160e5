package storage

import (
	"context"
	"io"
	"sort"
	"sync"

	"applicant-api-io/api/pkg/models"

	"github.com/pkg/errors"
)

// Upload is one file received with a request.
type Upload struct {
	Field    string
	Filename string
	Body     io.Reader
}

// Batch tracks the files stored while serving one request so they can be
// discarded if the request fails.
type Batch struct {
	store FileStorage

	mu     sync.Mutex
	stored []models.FileRef
}

func NewBatch(store FileStorage) *Batch {
	return &Batch{store: store}
}

// StoreAll stores uploads concurrently and returns their references keyed
// by field. If any upload fails, the ones that succeeded are still tracked
// by the batch and the first error by field order is returned.
func (b *Batch) StoreAll(ctx context.Context, uploads []Upload, c Constraints) (map[string]models.FileRef, error) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		refs = make(map[string]models.FileRef, len(uploads))
		errs = make(map[string]error)
	)

	for _, u := range uploads {
		wg.Add(1)
		go func(u Upload) {
			defer wg.Done()

			ref, err := b.store.Store(ctx, u.Body, u.Filename, c)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[u.Field] = err
				return
			}
			refs[u.Field] = ref
			b.track(ref)
		}(u)
	}
	wg.Wait()

	if len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for f := range errs {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		return refs, errors.WithMessagef(errs[fields[0]], "upload %s", fields[0])
	}
	return refs, nil
}

// Store stores a single upload.
func (b *Batch) Store(ctx context.Context, u Upload, c Constraints) (models.FileRef, error) {
	ref, err := b.store.Store(ctx, u.Body, u.Filename, c)
	if err != nil {
		return models.FileRef{}, err
	}
	b.track(ref)
	return ref, nil
}

func (b *Batch) track(ref models.FileRef) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stored = append(b.stored, ref)
}

// Stored returns what the batch has stored so far.
func (b *Batch) Stored() []models.FileRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.FileRef(nil), b.stored...)
}

// Discard removes every file the batch stored.
func (b *Batch) Discard(ctx context.Context) {
	DeleteNow(ctx, b.store, b.Stored()...)
}
