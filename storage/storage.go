// Package storage writes galley and chapter payloads to the catalog's file
// area. Files are stored under a random name; the original filename is
// kept on the catalog record.
package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Disk stores files below a root directory.
type Disk struct {
	root string
}

// NewDisk returns a Disk rooted at dir.
func NewDisk(dir string) *Disk {
	return &Disk{root: dir}
}

// Root returns the storage root.
func (d *Disk) Root() string {
	return d.root
}

// SaveArticleFile stores data for an article and returns its path relative
// to the root, e.g. articles/12/<uuid>.pdf.
func (d *Disk) SaveArticleFile(articleID int64, filename string, data []byte) (string, error) {
	return d.save(path.Join("articles", strconv.FormatInt(articleID, 10)), filename, data)
}

// SaveBookFile stores a chapter payload for a book.
func (d *Disk) SaveBookFile(bookID int64, filename string, data []byte) (string, error) {
	return d.save(path.Join("books", strconv.FormatInt(bookID, 10)), filename, data)
}

// Path resolves a relative storage path to a filesystem path.
func (d *Disk) Path(rel string) string {
	return filepath.Join(d.root, filepath.FromSlash(rel))
}

func (d *Disk) save(dir, filename string, data []byte) (string, error) {
	rel := path.Join(dir, uuid.NewString()+extension(filename))
	target := d.Path(rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}

	tmpPath := target + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	return rel, nil
}

func extension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) < 2 || len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		return ""
	}
	return ext
}
