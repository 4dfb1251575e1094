// Package frontmatter reads and patches the `---` delimited metadata block at
// the top of rule documents.
//
// The block is treated as line-oriented key: value text. Recognized fields
// are matched with line-anchored, case-sensitive regular expressions, so
// other fields, comments and ordering pass through untouched.
package frontmatter
