package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/bepress-migrate/galley"
)

// Discover returns the export-relative, slash-separated paths of every
// directory under root that holds a metadata.xml, in lexical order. When
// importPath is set only paths containing it are returned.
func Discover(root, importPath string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != galley.MetadataFile {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(p))
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if importPath != "" && !strings.Contains(rel, strings.Trim(importPath, "/")) {
			return nil
		}
		dirs = append(dirs, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Shard groups paths by their first segment, keeping the input order within
// and across shards.
func Shard(dirs []string) [][]string {
	var (
		shards [][]string
		index  = make(map[string]int)
	)
	for _, rel := range dirs {
		top := rel
		if i := strings.IndexByte(rel, '/'); i >= 0 {
			top = rel[:i]
		}
		i, ok := index[top]
		if !ok {
			i = len(shards)
			index[top] = i
			shards = append(shards, nil)
		}
		shards[i] = append(shards[i], rel)
	}
	return shards
}

// Folders lists the export directories under archiveRoot.
func Folders(archiveRoot string) ([]string, error) {
	entries, err := os.ReadDir(archiveRoot)
	if err != nil {
		return nil, fmt.Errorf("reading archive root: %w", err)
	}
	var folders []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			folders = append(folders, e.Name())
		}
	}
	return folders, nil
}
