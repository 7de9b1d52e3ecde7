package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps objects under a directory on disk and serves them from
// baseURL through the HTTP server's /files/ route. Development only.
type LocalStorage struct {
	root    string
	baseURL string
	logger  *slog.Logger
}

func NewLocalStorage(cfg LocalConfig, logger *slog.Logger) (*LocalStorage, error) {
	root, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &LocalStorage{
		root:    root,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
	logger.Info("Local storage ready", "path", s.root, "url", s.baseURL)
	return s, nil
}

// Put writes to a temporary file first so readers never see a partial
// object. Without Overwrite the final link fails if the key is taken.
func (s *LocalStorage) Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error {
	const op = "Put"
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := s.path(key)
	if err != nil {
		return opError(op, key, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return opError(op, key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return opError(op, key, err)
	}
	defer os.Remove(tmp.Name())

	body := capReader(data, opts.MaxSize)
	_, err = io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if body.exceeded {
		return opError(op, key, ErrTooLarge)
	}
	if err != nil {
		return opError(op, key, err)
	}

	if opts.Overwrite {
		err = os.Rename(tmp.Name(), dst)
	} else {
		err = os.Link(tmp.Name(), dst)
	}
	if errors.Is(err, fs.ErrExist) {
		return opError(op, key, ErrKeyExists)
	}
	if err != nil {
		return opError(op, key, err)
	}

	s.logger.Debug("Stored file", "key", key, "bytes", body.read)
	return nil
}

func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	const op = "Get"
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}
	p, err := s.path(key)
	if err != nil {
		return nil, ObjectInfo{}, opError(op, key, err)
	}

	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ObjectInfo{}, opError(op, key, ErrNotFound)
	}
	if err != nil {
		return nil, ObjectInfo{}, opError(op, key, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, opError(op, key, err)
	}

	return f, ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  DetectContentType("", key, nil),
		LastModified: st.ModTime(),
	}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return opError("Delete", key, err)
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return opError("Delete", key, err)
	}
	return nil
}

// DeletePrefix removes the directory named by prefix and reports how many
// files it held.
func (s *LocalStorage) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	const op = "DeletePrefix"
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkPrefix(prefix); err != nil {
		return 0, opError(op, prefix, err)
	}
	dir, err := s.path(prefix)
	if err != nil || dir == s.root {
		return 0, opError(op, prefix, ErrInvalidKey)
	}

	files := 0
	err = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files++
		}
		return err
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, opError(op, prefix, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return 0, opError(op, prefix, err)
	}

	s.logger.Debug("Deleted prefix", "prefix", prefix, "files", files)
	return files, nil
}

// URL ignores expires; local files are always public.
func (s *LocalStorage) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := s.path(key); err != nil {
		return "", opError("URL", key, err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.path(key)
	if err != nil {
		return false, opError("Exists", key, err)
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, opError("Exists", key, err)
	}
}

// path maps a key to a file below root.
func (s *LocalStorage) path(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	p := filepath.Join(s.root, filepath.FromSlash(key))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return p, nil
}
