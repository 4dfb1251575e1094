// Package yaml wraps [github.com/goccy/go-yaml] with the decoder and encoder
// settings used across ruletokens, JSON schema validation and generation,
// and errors that point back at the offending YAML path.
package yaml
