package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// ObjectStore stores salary slip blobs and hands out time-limited download links.
type ObjectStore interface {
	Stage(ctx context.Context, objectPath string, body io.Reader, maxBytes int64) (*StagedObject, error)
	Download(ctx context.Context, objectPath string) (io.ReadCloser, int64, error)
	CreateSignedURL(objectPath string, ttl time.Duration) (SignedURL, error)
	VerifySignedToken(token string) (string, error)
}

// ErrTooLarge reports a staged body over the caller's byte limit.
var ErrTooLarge = errors.New("storage: object exceeds size limit")

var errStagedFinished = errors.New("storage: staged object already committed or discarded")

// SignedURL is a download link valid until ExpiresAt.
type SignedURL struct {
	URL       string
	Token     string
	ExpiresAt time.Time
}

// LocalStore keeps objects under a root directory on the local filesystem.
type LocalStore struct {
	root   string
	signer *URLSigner
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string, signer *URLSigner) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create root %s: %w", root, err)
	}
	return &LocalStore{root: root, signer: signer}, nil
}

// Stage writes body to a temporary object next to objectPath. Nothing is visible at
// objectPath until the returned object is committed. A positive maxBytes caps the
// body; a larger body is discarded and ErrTooLarge returned.
func (s *LocalStore) Stage(ctx context.Context, objectPath string, body io.Reader, maxBytes int64) (*StagedObject, error) {
	target, err := s.resolve(objectPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return nil, upstream(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return nil, upstream(err)
	}

	src := io.Reader(&contextReader{ctx: ctx, r: body})
	if maxBytes > 0 {
		src = io.LimitReader(src, maxBytes+1)
	}
	written, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil && maxBytes > 0 && written > maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(tmp.Name())
		if errors.Is(err, ErrTooLarge) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, upstream(err)
	}
	return &StagedObject{tmp: tmp.Name(), target: target, size: written}, nil
}

// StagedObject is an uploaded body waiting to replace the object at its path.
type StagedObject struct {
	mu     sync.Mutex
	tmp    string
	target string
	size   int64
	done   bool
}

// Size reports the number of bytes staged.
func (o *StagedObject) Size() int64 {
	return o.size
}

// Commit atomically replaces the target object with the staged body.
func (o *StagedObject) Commit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done {
		return errStagedFinished
	}
	o.done = true
	if err := os.Rename(o.tmp, o.target); err != nil {
		os.Remove(o.tmp)
		return upstream(err)
	}
	return nil
}

// Discard drops the staged body. It is a no-op after Commit.
func (o *StagedObject) Discard() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done {
		return nil
	}
	o.done = true
	if err := os.Remove(o.tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return upstream(err)
	}
	return nil
}

// Download opens objectPath for reading. The caller closes the reader.
func (s *LocalStore) Download(ctx context.Context, objectPath string) (io.ReadCloser, int64, error) {
	target, err := s.resolve(objectPath)
	if err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("object %s: %w", objectPath, apperrors.ErrNotFound)
		}
		return nil, 0, upstream(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, upstream(err)
	}
	return f, info.Size(), nil
}

// CreateSignedURL issues a link for objectPath that expires after ttl.
func (s *LocalStore) CreateSignedURL(objectPath string, ttl time.Duration) (SignedURL, error) {
	if _, err := s.resolve(objectPath); err != nil {
		return SignedURL{}, err
	}
	return s.signer.Sign(objectPath, ttl)
}

// VerifySignedToken returns the object path a token grants access to.
func (s *LocalStore) VerifySignedToken(token string) (string, error) {
	objectPath, err := s.signer.Verify(token)
	if err != nil {
		return "", err
	}
	if _, err := s.resolve(objectPath); err != nil {
		return "", err
	}
	return objectPath, nil
}

// resolve maps an object path onto the filesystem, refusing anything that escapes root.
func (s *LocalStore) resolve(objectPath string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(objectPath))
	if cleaned == "/" || strings.Contains(objectPath, "..") {
		return "", apperrors.NewValidationError("invalid object path", map[string]any{"path": objectPath})
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

func upstream(err error) error {
	return fmt.Errorf("storage: %w: %v", apperrors.ErrUpstreamRequestFailed, err)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
