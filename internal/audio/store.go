package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"farmsathi/pkg"
)

// Store persists synthesized audio artifacts keyed by content hash. The
// invariant is at most one stored artifact per cache key.
type Store interface {
	Lookup(cacheKey string) (*pkg.AudioArtifact, bool)
	Save(cacheKey, language string, data []byte) (*pkg.AudioArtifact, error)

	// OldestFirst returns up to n artifacts ordered least-recently-created
	// first. This is the eviction contract consumed by the external janitor.
	OldestFirst(n int) []pkg.AudioArtifact
}

// FileStore keeps artifacts as MP3 files under a single directory with an
// in-memory index.
type FileStore struct {
	dir string
	now func() time.Time

	mu    sync.RWMutex
	index map[string]pkg.AudioArtifact
}

// NewFileStore creates the directory if needed and returns the store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	return &FileStore{
		dir:   dir,
		now:   time.Now,
		index: make(map[string]pkg.AudioArtifact),
	}, nil
}

func (s *FileStore) path(cacheKey string) string {
	return filepath.Join(s.dir, cacheKey+".mp3")
}

// Lookup returns the artifact for cacheKey if it exists.
func (s *FileStore) Lookup(cacheKey string) (*pkg.AudioArtifact, bool) {
	s.mu.RLock()
	art, ok := s.index[cacheKey]
	s.mu.RUnlock()
	if ok {
		return &art, true
	}

	// Index may be cold after a restart; fall back to the filesystem.
	info, err := os.Stat(s.path(cacheKey))
	if err != nil {
		return nil, false
	}
	art = pkg.AudioArtifact{
		CacheKey:  cacheKey,
		Path:      s.path(cacheKey),
		CreatedAt: info.ModTime(),
	}
	s.mu.Lock()
	s.index[cacheKey] = art
	s.mu.Unlock()
	return &art, true
}

// Save writes the audio bytes atomically (temp file + rename) so a partial
// artifact is never observable, then indexes it.
func (s *FileStore) Save(cacheKey, language string, data []byte) (*pkg.AudioArtifact, error) {
	tmp, err := os.CreateTemp(s.dir, cacheKey+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp audio file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to close audio file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(cacheKey)); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to store audio file: %w", err)
	}

	art := pkg.AudioArtifact{
		CacheKey:  cacheKey,
		Path:      s.path(cacheKey),
		Language:  language,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.index[cacheKey] = art
	s.mu.Unlock()
	return &art, nil
}

// OldestFirst implements the janitor eviction contract.
func (s *FileStore) OldestFirst(n int) []pkg.AudioArtifact {
	s.mu.RLock()
	out := make([]pkg.AudioArtifact, 0, len(s.index))
	for _, art := range s.index {
		out = append(out, art)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
