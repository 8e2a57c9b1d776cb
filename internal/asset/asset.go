// Package asset loads the warning image served to untrusted referers.
package asset

import (
	"fmt"
	"os"
	"sync"
)

// ContentType of the bundled warning image
const ContentType = "image/png"

// Loader returns the bytes of the warning image
type Loader interface {
	Load() ([]byte, error)
}

// Config holds asset configuration
type Config struct {
	Path  string // Path to the PNG, relative to the working directory unless absolute
	Cache bool   // Keep the first successful read in memory
}

// DefaultConfig returns default asset configuration
func DefaultConfig() Config {
	return Config{
		Path:  "static/Warning.png",
		Cache: true,
	}
}

// File reads the warning image from disk
type File struct {
	path  string
	cache bool

	mu   sync.RWMutex
	data []byte
}

// New creates a file-backed loader.
// The file is not opened until the first Load.
func New(cfg Config) *File {
	return &File{
		path:  cfg.Path,
		cache: cfg.Cache,
	}
}

// Path returns the configured image path
func (f *File) Path() string {
	return f.path
}

// Load returns the image bytes. Failed reads are never cached.
func (f *File) Load() ([]byte, error) {
	if f.cache {
		f.mu.RLock()
		data := f.data
		f.mu.RUnlock()
		if data != nil {
			return data, nil
		}
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read warning asset %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("warning asset %s is empty", f.path)
	}

	if f.cache {
		f.mu.Lock()
		if f.data == nil {
			f.data = data
		}
		data = f.data
		f.mu.Unlock()
	}

	return data, nil
}
