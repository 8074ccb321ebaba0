package codec

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
)

// Manifest is the YAML sidecar written next to a text model. It carries the
// corpus metadata the text format leaves out.
type Manifest struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	CreatedAt time.Time `yaml:"created_at"`
	Sentences int64     `yaml:"sentences"`
	Tokens    int64     `yaml:"tokens"`
	Unigrams  int       `yaml:"unigrams"`
	Bigrams   int       `yaml:"bigrams"`
	Trigrams  int       `yaml:"trigrams"`
	Floor     float64   `yaml:"floor"`
}

// NewManifest describes m
func NewManifest(id, name string, m *ngram.Model, floor float64, now time.Time) Manifest {
	meta := m.Meta()
	return Manifest{
		ID:        id,
		Name:      name,
		CreatedAt: now.UTC(),
		Sentences: meta.Sentences,
		Tokens:    meta.Tokens,
		Unigrams:  m.Len(1),
		Bigrams:   m.Len(2),
		Trigrams:  m.Len(3),
		Floor:     floor,
	}
}

// Meta returns the model metadata recorded in the manifest
func (mf Manifest) Meta() ngram.Meta {
	return ngram.Meta{Sentences: mf.Sentences, Tokens: mf.Tokens}
}

// Matches reports whether the manifest table sizes agree with m
func (mf Manifest) Matches(m *ngram.Model) bool {
	return mf.Unigrams == m.Len(1) && mf.Bigrams == m.Len(2) && mf.Trigrams == m.Len(3)
}

// WriteManifest encodes mf as YAML
func WriteManifest(w io.Writer, mf Manifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(mf); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return enc.Close()
}

// LoadManifest reads a manifest from a YAML file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var mf Manifest
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return &mf, nil
}
