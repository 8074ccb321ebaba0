package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
	"github.com/cognicore/trigramlm/pkg/trigramlm/score"
)

// Tokenizer modes
const (
	ModeScript     = "script"
	ModeWhitespace = "whitespace"
	ModeTagged     = "tagged"
)

type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Progress  bool            `mapstructure:"progress"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Generate  GenerateConfig  `mapstructure:"generate"`
	Store     StoreConfig     `mapstructure:"store"`
	Paths     PathsConfig     `mapstructure:"paths"`
}

type CorpusConfig struct {
	TextColumn int  `mapstructure:"text_column"`
	SkipHeader bool `mapstructure:"skip_header"`
}

type TokenizerConfig struct {
	Mode         string `mapstructure:"mode"`
	Lowercase    bool   `mapstructure:"lowercase"`
	StripHTML    bool   `mapstructure:"strip_html"`
	StoplistPath string `mapstructure:"stoplist_path"`
}

type ScoringConfig struct {
	Floor   float64       `mapstructure:"floor"`
	Weights WeightsConfig `mapstructure:"weights"`
}

type WeightsConfig struct {
	Unigram float64 `mapstructure:"unigram"`
	Bigram  float64 `mapstructure:"bigram"`
	Trigram float64 `mapstructure:"trigram"`
}

type GenerateConfig struct {
	Count  int    `mapstructure:"count"`
	MaxLen int    `mapstructure:"max_len"`
	Seed   uint64 `mapstructure:"seed"`
	Order  int    `mapstructure:"order"`
}

type StoreConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type PathsConfig struct {
	OutDir string `mapstructure:"out_dir"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	w := score.EqualWeights()
	return Config{
		LogLevel: "info",
		Progress: false,
		Corpus: CorpusConfig{
			TextColumn: 1,
			SkipHeader: true,
		},
		Tokenizer: TokenizerConfig{
			Mode:      ModeScript,
			StripHTML: true,
		},
		Scoring: ScoringConfig{
			Floor: score.ImpossibleLogProb,
			Weights: WeightsConfig{
				Unigram: w.Unigram,
				Bigram:  w.Bigram,
				Trigram: w.Trigram,
			},
		},
		Generate: GenerateConfig{
			Count:  20,
			MaxLen: 100,
			Seed:   0,
			Order:  3,
		},
		Store: StoreConfig{},
		Paths: PathsConfig{
			OutDir: "out",
		},
	}
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":               "log_level",
	"progress":                "progress",
	"corpus-text-column":      "corpus.text_column",
	"corpus-skip-header":      "corpus.skip_header",
	"tokenizer-mode":          "tokenizer.mode",
	"tokenizer-lowercase":     "tokenizer.lowercase",
	"tokenizer-strip-html":    "tokenizer.strip_html",
	"tokenizer-stoplist-path": "tokenizer.stoplist_path",
	"scoring-floor":           "scoring.floor",
	"scoring-weights-unigram": "scoring.weights.unigram",
	"scoring-weights-bigram":  "scoring.weights.bigram",
	"scoring-weights-trigram": "scoring.weights.trigram",
	"generate-count":          "generate.count",
	"generate-max-len":        "generate.max_len",
	"generate-seed":           "generate.seed",
	"generate-order":          "generate.order",
	"store-db-path":           "store.db_path",
	"paths-out-dir":           "paths.out_dir",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.Bool("progress", defaults.Progress, "Show a progress bar while training")
	fs.Int("corpus-text-column", defaults.Corpus.TextColumn, "Zero-based TSV column holding the sentence")
	fs.Bool("corpus-skip-header", defaults.Corpus.SkipHeader, "Skip the first TSV row")
	fs.String("tokenizer-mode", defaults.Tokenizer.Mode, "Tokenizer (script|whitespace|tagged)")
	fs.Bool("tokenizer-lowercase", defaults.Tokenizer.Lowercase, "Lowercase tokens")
	fs.Bool("tokenizer-strip-html", defaults.Tokenizer.StripHTML, "Remove HTML tags and entities before tokenizing")
	fs.String("tokenizer-stoplist-path", defaults.Tokenizer.StoplistPath, "YAML stoplist with a terms list")
	fs.Float64("scoring-floor", defaults.Scoring.Floor, "Log2 score for impossible sentences and missing entries")
	fs.Float64("scoring-weights-unigram", defaults.Scoring.Weights.Unigram, "Interpolation weight of the unigram estimate")
	fs.Float64("scoring-weights-bigram", defaults.Scoring.Weights.Bigram, "Interpolation weight of the bigram estimate")
	fs.Float64("scoring-weights-trigram", defaults.Scoring.Weights.Trigram, "Interpolation weight of the trigram estimate")
	fs.Int("generate-count", defaults.Generate.Count, "Number of sentences to generate")
	fs.Int("generate-max-len", defaults.Generate.MaxLen, "Maximum tokens per generated sentence")
	fs.Uint64("generate-seed", defaults.Generate.Seed, "Random seed (0 picks one from the clock)")
	fs.Int("generate-order", defaults.Generate.Order, "N-gram order used for sampling (1-3)")
	fs.String("store-db-path", defaults.Store.DBPath, "SQLite model store (empty disables the store)")
	fs.String("paths-out-dir", defaults.Paths.OutDir, "Directory for training and scoring outputs")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("TRIGRAMLM")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("trigramlm")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// bindFlags binds each known flag to its nested key. A flag only overrides
// the config file when it was set on the command line.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("progress", c.Progress)
	v.SetDefault("corpus.text_column", c.Corpus.TextColumn)
	v.SetDefault("corpus.skip_header", c.Corpus.SkipHeader)
	v.SetDefault("tokenizer.mode", c.Tokenizer.Mode)
	v.SetDefault("tokenizer.lowercase", c.Tokenizer.Lowercase)
	v.SetDefault("tokenizer.strip_html", c.Tokenizer.StripHTML)
	v.SetDefault("tokenizer.stoplist_path", c.Tokenizer.StoplistPath)
	v.SetDefault("scoring.floor", c.Scoring.Floor)
	v.SetDefault("scoring.weights.unigram", c.Scoring.Weights.Unigram)
	v.SetDefault("scoring.weights.bigram", c.Scoring.Weights.Bigram)
	v.SetDefault("scoring.weights.trigram", c.Scoring.Weights.Trigram)
	v.SetDefault("generate.count", c.Generate.Count)
	v.SetDefault("generate.max_len", c.Generate.MaxLen)
	v.SetDefault("generate.seed", c.Generate.Seed)
	v.SetDefault("generate.order", c.Generate.Order)
	v.SetDefault("store.db_path", c.Store.DBPath)
	v.SetDefault("paths.out_dir", c.Paths.OutDir)
}

// ScoreOptions converts the scoring section for score.New.
func (c Config) ScoreOptions() score.Options {
	return score.Options{
		Floor: c.Scoring.Floor,
		Weights: score.Weights{
			Unigram: c.Scoring.Weights.Unigram,
			Bigram:  c.Scoring.Weights.Bigram,
			Trigram: c.Scoring.Weights.Trigram,
		},
	}
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Corpus.TextColumn < 0 {
		return fmt.Errorf("corpus.text_column %d is negative: %w", c.Corpus.TextColumn, internalerr.ErrInvalidConfig)
	}
	if _, err := NormalizeMode(c.Tokenizer.Mode); err != nil {
		return err
	}
	if err := c.ScoreOptions().Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if c.Generate.Count < 0 {
		return fmt.Errorf("generate.count %d is negative: %w", c.Generate.Count, internalerr.ErrInvalidConfig)
	}
	if c.Generate.MaxLen <= 0 {
		return fmt.Errorf("generate.max_len must be positive, got %d: %w", c.Generate.MaxLen, internalerr.ErrInvalidConfig)
	}
	if c.Generate.Order < 1 || c.Generate.Order > 3 {
		return fmt.Errorf("generate.order %d outside 1..3: %w", c.Generate.Order, internalerr.ErrInvalidConfig)
	}
	return nil
}

// NormalizeMode lowercases and trims a tokenizer mode; empty means script.
func NormalizeMode(mode string) (string, error) {
	m := strings.ToLower(strings.TrimSpace(mode))
	switch m {
	case "":
		return ModeScript, nil
	case ModeScript, ModeWhitespace, ModeTagged:
		return m, nil
	}
	return "", fmt.Errorf("unknown tokenizer mode %q: %w", mode, internalerr.ErrInvalidConfig)
}

// ParseLogLevel maps a level name to slog; empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q: %w", s, internalerr.ErrInvalidConfig)
}
