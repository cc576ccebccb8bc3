// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// BuildFileExtension is the suffix of build files.
const BuildFileExtension = ".anvil.hcl"

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// FindBuildFile resolves path to a single build file. A file path is
// returned as is; a directory must hold exactly one build file at its top
// level.
func FindBuildFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	all, err := FindFilesByExtension(path, BuildFileExtension)
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", path, err)
	}
	var top []string
	for _, f := range all {
		if filepath.Dir(f) == filepath.Clean(path) {
			top = append(top, f)
		}
	}

	switch len(top) {
	case 0:
		return "", fmt.Errorf("could not find a '*%s' file in '%s'", BuildFileExtension, path)
	case 1:
		return top[0], nil
	default:
		return "", fmt.Errorf("more than one '*%s' file found in '%s'; use --buildfile to choose one", BuildFileExtension, path)
	}
}
