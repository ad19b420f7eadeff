package ingestion

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

func Supported(path string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadLocalFiles walks root and returns the supported files in lexical order.
func LoadLocalFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if Supported(path) {
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}
