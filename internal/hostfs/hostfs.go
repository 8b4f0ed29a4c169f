package hostfs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultRoot is used when the service runs directly on the host.
const DefaultRoot = "/"

var ErrInvalidPath = errors.New("invalid host path")

// FS resolves host paths below Root.
type FS struct {
	Root string
}

func New(root string) *FS {
	if root == "" {
		root = DefaultRoot
	}
	return &FS{Root: filepath.Clean(root)}
}

// Path joins Root with a relative path (no leading slash required).
// Example: with Root "/host", Path("etc/passwd") -> /host/etc/passwd
func (f *FS) Path(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	clean := filepath.Clean(rel)
	if clean == "." || clean == "" {
		return "", ErrInvalidPath
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return filepath.Join(f.Root, clean), nil
}

// ReadFile reads a file relative to Root.
func (f *FS) ReadFile(rel string) ([]byte, error) {
	p, err := f.Path(rel)
	if err != nil {
		return nil, err
	}
	m := muFor(p)
	m.Lock()
	defer m.Unlock()
	return os.ReadFile(p)
}

var globalMu sync.Mutex
var fileMu = map[string]*sync.Mutex{}

func muFor(path string) *sync.Mutex {
	globalMu.Lock()
	defer globalMu.Unlock()
	if m := fileMu[path]; m != nil {
		return m
	}
	m := &sync.Mutex{}
	fileMu[path] = m
	return m
}
