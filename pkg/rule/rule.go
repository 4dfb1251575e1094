package rule

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/macropower/ruletokens/pkg/frontmatter"
)

// Document is a rule file read from disk.
type Document struct {
	// Name is the file name within the rules directory.
	Name string
	// Path is the path the document was read from.
	Path string
	// Content is the raw file text.
	Content string
	// Mode is the file mode, reused when the document is written back.
	Mode fs.FileMode
}

// Load reads the rule document at path.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat rule: %w", err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Rule paths come from the user.
	if err != nil {
		return nil, fmt.Errorf("read rule: %w", err)
	}

	return &Document{
		Name:    filepath.Base(path),
		Path:    path,
		Content: string(data),
		Mode:    info.Mode().Perm(),
	}, nil
}

// Body returns the document text after its frontmatter.
func (d *Document) Body() string {
	return frontmatter.Body(d.Content)
}

// AlwaysApply reports whether the document's frontmatter sets
// `alwaysApply: true`.
func (d *Document) AlwaysApply() bool {
	return frontmatter.AlwaysApply(d.Content)
}

// Write replaces the document content on disk and in memory.
func (d *Document) Write(content string) error {
	err := os.WriteFile(d.Path, []byte(content), d.Mode)
	if err != nil {
		return fmt.Errorf("write rule: %w", err)
	}

	d.Content = content

	return nil
}

func (d *Document) String() string {
	return d.Name
}
