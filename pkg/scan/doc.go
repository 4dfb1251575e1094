// Package scan runs the per-file pipeline: load each rule document, count
// the tokens in its body, and optionally record the count in its frontmatter.
//
// Documents are processed one at a time, in the order given. A failure on
// one document is recorded on the [Summary] and does not stop the others.
package scan
