// Package expr provides CEL (Common Expression Language) environments for
// selecting rule documents.
//
// Expressions have access to variables:
//   - `name` (string): The rule file name, e.g. "go-style.mdc"
//   - `path` (string): The rule file path
//   - `fields` (map<string, dyn>): The decoded frontmatter fields
//   - `alwaysApply` (bool): Whether the frontmatter sets `alwaysApply: true`
//
// and to the path functions pathBase, pathDir and pathExt, plus the cel-go
// string, list and math extensions.
package expr
