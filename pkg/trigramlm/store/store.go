package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
)

// Store persists trained models and the score runs computed against them
type Store interface {
	Close() error

	// Models
	SaveModel(ctx context.Context, info ModelInfo, m *ngram.Model) (ModelInfo, error)
	LoadModel(ctx context.Context, id string) (ModelInfo, *ngram.Model, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
	DeleteModel(ctx context.Context, id string) error

	// Scores
	SaveScores(ctx context.Context, modelID, kind string, scores []float64) error
	GetScores(ctx context.Context, modelID, kind string) ([]float64, error)
}

// ModelInfo describes a stored model
type ModelInfo struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Sentences int64
	Tokens    int64
	Unigrams  int
	Bigrams   int
	Trigrams  int
}

// Score run kinds
const (
	KindUnigram      = "unigram"
	KindBigram       = "bigram"
	KindTrigram      = "trigram"
	KindInterpolated = "interpolated"
)

// Describe completes info for saving m: it assigns an ID and creation time
// when missing and copies the corpus sizes and entry counts from the model.
func Describe(info ModelInfo, m *ngram.Model) ModelInfo {
	if info.ID == "" {
		info.ID = NewID()
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now().UTC()
	}
	meta := m.Meta()
	info.Sentences = meta.Sentences
	info.Tokens = meta.Tokens
	info.Unigrams = m.Len(1)
	info.Bigrams = m.Len(2)
	info.Trigrams = m.Len(3)
	return info
}

var (
	idMu    sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new ULID string. IDs created in the same process sort in
// creation order.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}
