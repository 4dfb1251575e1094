// Package config loads and validates the optional .ruletokens.yaml file.
//
// Files are decoded with [github.com/macropower/ruletokens/pkg/yaml] and
// checked against the schema reflected from [configs.Config]. Errors point
// at the offending YAML path and include the annotated source.
package config
