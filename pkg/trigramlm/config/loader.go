package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/trigramlm/pkg/trigramlm/ingest"
	"github.com/cognicore/trigramlm/pkg/trigramlm/score"
)

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

// Loader loads the files a configuration points at and constructs components
type Loader struct {
	TokenizerMode string
	Lowercase     bool
	StripHTML     bool
	StoplistPath  string
	Scoring       score.Options
}

// NewLoader copies the tokenizer and scoring sections of a Config
func NewLoader(cfg Config) *Loader {
	return &Loader{
		TokenizerMode: cfg.Tokenizer.Mode,
		Lowercase:     cfg.Tokenizer.Lowercase,
		StripHTML:     cfg.Tokenizer.StripHTML,
		StoplistPath:  cfg.Tokenizer.StoplistPath,
		Scoring:       cfg.ScoreOptions(),
	}
}

// Components holds the loaded configuration components
type Components struct {
	Pipeline *ingest.Pipeline
	Scoring  score.Options
}

// Load reads the stoplist and returns initialized components
func (l *Loader) Load() (*Components, error) {
	mode, err := NormalizeMode(l.TokenizerMode)
	if err != nil {
		return nil, err
	}

	var stopwords []string
	if l.StoplistPath != "" {
		stoplist, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		stopwords = stoplist.Terms
	}

	if err := l.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}

	return &Components{
		Pipeline: ingest.NewPipeline(newTokenizer(mode), ingest.PipelineOptions{
			StripMarkup: l.StripHTML,
			Lowercase:   l.Lowercase,
			Stopwords:   stopwords,
		}),
		Scoring: l.Scoring,
	}, nil
}

func newTokenizer(mode string) ingest.Tokenizer {
	switch mode {
	case ModeWhitespace:
		return ingest.WhitespaceTokenizer{}
	case ModeTagged:
		return ingest.TaggedTokenizer{}
	}
	return ingest.NewScriptTokenizer()
}
