// Package tokenizer counts tokens with OpenAI byte-pair encodings via
// [github.com/pkoukk/tiktoken-go].
//
// A [Counter] is resolved from a model name (default "gpt-4") or an explicit
// encoding name. Models without a known encoding fall back to
// [DefaultEncoding]. BPE rank files are fetched and cached by tiktoken-go on
// first use; set a cache directory to run fully offline.
package tokenizer
