package tokenizer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultModel is the model whose encoding is used when none is given.
	DefaultModel = "gpt-4"
	// DefaultEncoding is used for models without a known encoding.
	DefaultEncoding = "cl100k_base"

	// cacheDirEnv is read by tiktoken-go when loading BPE ranks.
	cacheDirEnv = "TIKTOKEN_CACHE_DIR"
)

// ErrUnavailable indicates that no encoding could be loaded.
var ErrUnavailable = errors.New("tokenizer unavailable")

// modelEncodings supplements the tables bundled with tiktoken-go for models
// released after it. Keys ending in "-" are prefixes.
var modelEncodings = map[string]string{
	"gpt-4o":   "o200k_base",
	"gpt-4o-":  "o200k_base",
	"gpt-4.1":  "o200k_base",
	"gpt-4.1-": "o200k_base",
	"o1":       "o200k_base",
	"o1-":      "o200k_base",
	"o3":       "o200k_base",
	"o3-":      "o200k_base",
}

// Counter counts tokens in text.
type Counter interface {
	Count(text string) int
}

// CounterFunc adapts a function to the [Counter] interface.
type CounterFunc func(text string) int

func (f CounterFunc) Count(text string) int {
	return f(text)
}

// Tiktoken is a [Counter] backed by a tiktoken encoding.
type Tiktoken struct {
	enc      *tiktoken.Tiktoken
	model    string
	encoding string
	cacheDir string
}

// Opt configures a [Tiktoken] counter.
type Opt func(*Tiktoken)

// WithModel selects the encoding used by the given model.
func WithModel(model string) Opt {
	return func(t *Tiktoken) {
		t.model = model
	}
}

// WithEncoding selects an encoding by name, overriding any model.
func WithEncoding(encoding string) Opt {
	return func(t *Tiktoken) {
		t.encoding = encoding
	}
}

// WithCacheDir sets the directory tiktoken-go caches BPE ranks in.
func WithCacheDir(dir string) Opt {
	return func(t *Tiktoken) {
		t.cacheDir = dir
	}
}

// New loads the encoding selected by opts.
//
// Without [WithEncoding], tiktoken-go's own model lookup is tried first,
// then the encoding from [EncodingForModel], then [DefaultEncoding]. An
// error wrapping [ErrUnavailable] is returned when nothing can be loaded.
func New(opts ...Opt) (*Tiktoken, error) {
	t := &Tiktoken{model: DefaultModel}
	for _, opt := range opts {
		opt(t)
	}

	if t.cacheDir != "" {
		err := os.Setenv(cacheDirEnv, t.cacheDir)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", cacheDirEnv, err)
		}
	}

	candidates := []string{t.encoding}
	if t.encoding == "" {
		enc, err := tiktoken.EncodingForModel(t.model)
		if err == nil {
			t.enc = enc
			t.encoding, _ = EncodingForModel(t.model)

			return t, nil
		}

		encoding, ok := EncodingForModel(t.model)
		slog.Debug("load encoding for model",
			slog.String("model", t.model),
			slog.String("encoding", encoding),
			slog.Bool("known", ok),
			slog.Any("err", err),
		)

		candidates = slices.Compact([]string{encoding, DefaultEncoding})
	}

	var errs []error

	for _, name := range candidates {
		enc, err := tiktoken.GetEncoding(name)
		if err != nil {
			slog.Debug("load encoding", slog.String("encoding", name), slog.Any("err", err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))

			continue
		}

		t.enc = enc
		t.encoding = name

		return t, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}

// Count returns the number of tokens in text. Special token text is encoded
// as ordinary text.
func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Encoding returns the name of the loaded encoding.
func (t *Tiktoken) Encoding() string {
	return t.encoding
}

func (t *Tiktoken) String() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}

// EncodingForModel returns the encoding for model, consulting the tables
// bundled with tiktoken-go before the local supplement. Exact names win over
// prefixes, and longer prefixes win over shorter ones. When no entry
// matches, [DefaultEncoding] is returned with false.
func EncodingForModel(model string) (string, bool) {
	if enc, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return enc, true
	}

	if enc, ok := modelEncodings[model]; ok && !strings.HasSuffix(model, "-") {
		return enc, true
	}

	var (
		best    string
		bestLen int
	)

	match := func(prefix, enc string) {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best, bestLen = enc, len(prefix)
		}
	}

	for prefix, enc := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		match(prefix, enc)
	}

	for prefix, enc := range modelEncodings {
		if strings.HasSuffix(prefix, "-") {
			match(prefix, enc)
		}
	}

	if bestLen > 0 {
		return best, true
	}

	return DefaultEncoding, false
}
