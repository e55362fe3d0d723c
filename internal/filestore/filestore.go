package filestore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/ksuid"
)

// Store manages the on-disk image files. Paths handed out and accepted are
// always relative to the root so the database never stores absolute paths.
type Store struct {
	root         string
	originalsDir string
	processedDir string
}

// Config holds file storage configuration
type Config struct {
	RootDir      string
	OriginalsDir string
	ProcessedDir string
}

// New creates a Store and makes sure its directories exist
func New(cfg *Config) (*Store, error) {
	originals := cfg.OriginalsDir
	if originals == "" {
		originals = "originals"
	}
	processed := cfg.ProcessedDir
	if processed == "" {
		processed = "processed"
	}

	s := &Store{
		root:         cfg.RootDir,
		originalsDir: originals,
		processedDir: processed,
	}

	for _, dir := range []string{
		filepath.Join(s.root, s.originalsDir),
		filepath.Join(s.root, s.processedDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	return s, nil
}

// Root returns the storage root directory
func (s *Store) Root() string {
	return s.root
}

// SaveOriginal stores an uploaded file under originals/ with a unique name,
// keeping the extension of the uploaded filename. Returns the relative path.
func (s *Store) SaveOriginal(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	name := ksuid.New().String() + ext
	relPath := filepath.ToSlash(filepath.Join(s.originalsDir, name))

	if err := s.writeFile(relPath, r); err != nil {
		return "", err
	}

	return relPath, nil
}

// SaveProcessed stores a processed result under processed/ with a unique
// name. Results are always PNG. Returns the relative path.
func (s *Store) SaveProcessed(data []byte) (string, error) {
	name := ksuid.New().String() + ".png"
	relPath := filepath.ToSlash(filepath.Join(s.processedDir, name))

	if err := s.writeFile(relPath, bytes.NewReader(data)); err != nil {
		return "", err
	}

	return relPath, nil
}

// Open opens a stored file by its relative path
func (s *Store) Open(relPath string) (*os.File, error) {
	abs, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file %s: %w", relPath, err)
	}

	return f, nil
}

// Abs returns the absolute path of a stored file, verifying it stays
// inside the storage root
func (s *Store) Abs(relPath string) (string, error) {
	return s.resolve(relPath)
}

// Remove deletes a stored file; a missing file is not an error
func (s *Store) Remove(relPath string) error {
	abs, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stored file %s: %w", relPath, err)
	}

	return nil
}

func (s *Store) writeFile(relPath string, r io.Reader) error {
	abs, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	f, err := os.Create(abs)
	if err != nil {
		return fmt.Errorf("failed to create stored file %s: %w", relPath, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(abs)
		return fmt.Errorf("failed to write stored file %s: %w", relPath, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close stored file %s: %w", relPath, err)
	}

	return nil
}

// resolve joins a relative path onto the root and rejects anything that
// would escape it
func (s *Store) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage path: %s", relPath)
	}

	return filepath.Join(s.root, cleaned), nil
}
