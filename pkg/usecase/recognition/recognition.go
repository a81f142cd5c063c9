package recognition

import (
	"time"

	"github.com/m-mizutani/digitnote/pkg/adapter"
	"github.com/m-mizutani/digitnote/pkg/imaging"
	"github.com/m-mizutani/digitnote/pkg/recognizer"
	"github.com/m-mizutani/digitnote/pkg/repository"
)

// UseCase ties recognition, thumbnail compression and record persistence
// together for a signed-in user
type UseCase struct {
	recognizer recognizer.Recognizer
	repo       repository.Repository
	archive    adapter.Storage
	compress   []imaging.CompressOption
	now        func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithArchive keeps the full-size original of every saved image in storage
func WithArchive(storage adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.archive = storage
	}
}

// WithCompressOptions overrides the thumbnail parameters
func WithCompressOptions(opts ...imaging.CompressOption) Option {
	return func(uc *UseCase) {
		uc.compress = opts
	}
}

// WithClock replaces time.Now, used for record timestamps
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new recognition UseCase instance
func New(rec recognizer.Recognizer, repo repository.Repository, opts ...Option) *UseCase {
	uc := &UseCase{
		recognizer: rec,
		repo:       repo,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
