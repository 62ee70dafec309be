package utils

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/corrosion-lang/corrosion/internal/config"
)

// ExtractModuleName derives a module name from a file path.
// It takes the base filename and removes any recognized source extension.
func ExtractModuleName(path string) string {
	name := filepath.Base(path)
	return config.TrimSourceExt(name)
}

// ModulePathFor derives the module path of a source file relative to root.
// Files directly under root get their bare name; files in subdirectories
// keep the directory prefix with forward slashes, so root/util/strings.crn
// becomes "util/strings".
func ModulePathFor(root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", err
	}
	rel = config.TrimSourceExt(rel)
	return filepath.ToSlash(rel), nil
}

// CollectSources walks root and returns module path -> file contents for
// every recognized source file. Hidden directories are skipped.
func CollectSources(root string) (map[string]string, error) {
	sources := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name != "." && len(name) > 1 && name[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if !config.HasSourceExt(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		mod, err := ModulePathFor(root, path)
		if err != nil {
			return err
		}
		sources[mod] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}
