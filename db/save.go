package db

import (
	"fmt"
	"os"
	"path/filepath"

	"ember/parser"
)

// SaveProgram writes a serialized program to path. The data goes to a
// temporary file first, which is then renamed over path.
func SaveProgram(path string, prog *parser.Program) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	tempPath := path + ".#tmp#"
	tempFile, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := NewWriter(tempFile).WriteProgram(prog); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("write program: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := atomicRename(tempPath, path); err != nil {
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}

// LoadProgram reads a serialized program from path
func LoadProgram(path string) (*parser.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open program: %w", err)
	}
	defer f.Close()
	return ReadProgram(f)
}

// atomicRename performs an atomic rename operation
// On Unix this is atomic, on Windows we need to handle existing file
func atomicRename(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	// If that failed, try removing dst first (Windows)
	if os.Remove(dst) == nil {
		return os.Rename(src, dst)
	}
	return err
}
