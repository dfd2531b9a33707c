// Package gzfile implements storage.Slots as gzip-compressed files, one per
// session and key, under a root directory.
package gzfile

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/kart-storefront/internal/storage"
)

var _ storage.Slots = (*Slots)(nil)

// ErrInvalidName is returned for session ids or keys that are not safe to
// use as file names.
var ErrInvalidName = errors.New("invalid slot name")

const ext = ".json.gz"

// Slots stores each slot at <dir>/<session>/<key>.json.gz. Writes go to a
// temporary file that is renamed into place.
type Slots struct {
	dir string
	mu  sync.Mutex
}

// New returns file slots rooted at dir, creating it if needed.
func New(dir string) (*Slots, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "create slot dir %s", dir)
	}
	return &Slots{dir: dir}, nil
}

func (s *Slots) path(session, key string) (string, error) {
	if !validName(session) || !validName(key) {
		return "", errors.Wrapf(ErrInvalidName, "%q/%q", session, key)
	}
	return filepath.Join(s.dir, session, key+ext), nil
}

// Get reads and decompresses a slot.
func (s *Slots) Get(_ context.Context, session, key string) ([]byte, error) {
	p, err := s.path(session, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "open slot")
	}
	defer func() { _ = f.Close() }()

	zr, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "gzip reader")
	}
	defer func() { _ = zr.Close() }()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "read slot")
	}
	return data, nil
}

// Set compresses value and atomically replaces the slot file.
func (s *Slots) Set(_ context.Context, session, key string, value []byte) error {
	p, err := s.path(session, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrap(err, "create session dir")
	}

	tmp, err := os.CreateTemp(dir, key+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	zw := pgzip.NewWriter(tmp)
	if _, err := zw.Write(value); err != nil {
		return errors.Wrap(err, "compress slot")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "flush gzip")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync slot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close slot")
	}
	if err := os.Rename(tmpName, p); err != nil {
		return errors.Wrap(err, "rename slot")
	}
	committed = true
	return nil
}

// validName allows ASCII letters, digits, '-' and '_'.
func validName(name string) bool {
	if name == "" || len(name) > 128 {
		return false
	}
	for i := range len(name) {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
