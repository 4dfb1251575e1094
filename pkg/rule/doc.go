// Package rule discovers and loads rule documents: Markdown files with a
// `---` delimited frontmatter block, conventionally stored as `*.mdc` files in
// `.cursor/rules`.
//
// A [Filter] narrows the selection with a CEL expression evaluated against
// each document's name, path and frontmatter fields.
package rule
