package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStoreVersion is the current schema version of the submissions file.
const FileStoreVersion = 1

type fileStoreData struct {
	Version     int          `json:"version"`
	Submissions []Submission `json:"submissions"`
}

// FileStore keeps every submission in a single JSON file. Writes go through
// a temporary file and a rename, under an advisory lockfile shared with other
// processes.
type FileStore struct {
	mu       sync.Mutex
	filePath string
}

// NewFileStore returns a store backed by filePath. An empty path defaults to
// ~/.carbonconsult/submissions.json.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determining home directory: %w", err)
		}
		filePath = filepath.Join(home, ".carbonconsult", "submissions.json")
	}
	return &FileStore{filePath: filePath}, nil
}

// FilePath returns the backing file.
func (s *FileStore) FilePath() string {
	return s.filePath
}

// Save appends sub to the file.
func (s *FileStore) Save(ctx context.Context, sub Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock, err := acquireFileLock(s.filePath + ".lock")
	if err != nil {
		return fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}
	data.Submissions = append(data.Submissions, sub)
	return s.write(data)
}

// List returns every stored submission in submission order.
func (s *FileStore) List(ctx context.Context) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return nil, err
	}
	return data.Submissions, nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// read loads the file. A missing file is an empty store; an undecodable file
// or an unknown version is ErrStoreCorrupted and is never silently replaced.
func (s *FileStore) read() (fileStoreData, error) {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fileStoreData{Version: FileStoreVersion}, nil
		}
		return fileStoreData{}, fmt.Errorf("reading submissions file: %w", err)
	}

	var data fileStoreData
	if err = json.Unmarshal(raw, &data); err != nil {
		return fileStoreData{}, fmt.Errorf("%w: %w", ErrStoreCorrupted, err)
	}
	if data.Version != FileStoreVersion {
		return fileStoreData{}, fmt.Errorf("%w: unsupported version %d (expected %d)",
			ErrStoreCorrupted, data.Version, FileStoreVersion)
	}
	return data, nil
}

func (s *FileStore) write(data fileStoreData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling submissions: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(s.filePath), 0o750); err != nil {
		return fmt.Errorf("creating submissions directory: %w", err)
	}

	tmpPath := s.filePath + ".tmp"
	if err = os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("writing submissions temp file: %w", err)
	}
	if err = os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming submissions temp file: %w", err)
	}
	return nil
}

// acquireFileLock creates lockPath exclusively, retrying briefly. Locks older
// than staleLockAge are assumed abandoned and removed.
func acquireFileLock(lockPath string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	const (
		maxRetries   = 10
		retryDelay   = 100 * time.Millisecond
		staleLockAge = 30 * time.Second
	)
	for range maxRetries {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d", os.Getpid())
			_ = f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			_ = os.Remove(lockPath)
			continue
		}
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("could not acquire lock on %s after retries", lockPath)
}
