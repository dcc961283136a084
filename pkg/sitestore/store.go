package sitestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Extension is appended to every key to form the stored file name.
const Extension = ".html"

// MaxKeyLength bounds the length of a key.
const MaxKeyLength = 128

var tracer = otel.Tracer("github.com/CTAG07/Folio/pkg/sitestore")

// Info describes a stored page.
type Info struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Store is a filesystem-backed, key-addressed page store.
// It is safe for concurrent use.
type Store struct {
	root   string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New opens a Store rooted at root, creating the directory if it is absent.
func New(root string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store root: %w", err)
	}

	s := &Store{
		root:   abs,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err = os.MkdirAll(abs, 0755); err != nil {
		return nil, &StorageError{Op: "init", Key: "", Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &StorageError{Op: "init", Key: "", Err: err}
	}
	if !info.IsDir() {
		return nil, &StorageError{Op: "init", Key: "", Err: fmt.Errorf("%s is not a directory", abs)}
	}

	s.logger.Debug("Site store opened", "root", abs)
	return s, nil
}

// Root returns the absolute directory the store writes to.
func (s *Store) Root() string {
	return s.root
}

// Path resolves key to the file it is stored in. It is the single point where
// keys are validated.
func (s *Store) Path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	p := filepath.Join(s.root, key+Extension)
	if filepath.Dir(p) != s.root {
		return "", ErrInvalidKey
	}
	return p, nil
}

// ValidateKey reports whether key is a path-safe token.
func ValidateKey(key string) error {
	if key == "" || len(key) > MaxKeyLength || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	for _, r := range key {
		if !isKeyChar(r) {
			return ErrInvalidKey
		}
	}
	return nil
}

func isKeyChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_' || r == '-'
}

// Put durably stores html under key. The content becomes visible in one
// atomic step. Failures of the medium are returned as *StorageError.
func (s *Store) Put(ctx context.Context, key string, html []byte) (err error) {
	_, span := tracer.Start(ctx, "sitestore.Put", trace.WithAttributes(
		attribute.String("site.key", key),
		attribute.Int("site.size", len(html)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	p, err := s.Path(key)
	if err != nil {
		return err
	}
	if err = atomic.WriteFile(p, bytes.NewReader(html)); err != nil {
		s.logger.Error("Failed to write site", "key", key, "error", err)
		return &StorageError{Op: "put", Key: key, Err: err}
	}

	s.logger.Debug("Stored site", "key", key, "size", humanize.Bytes(uint64(len(html))))
	return nil
}

// Get returns the exact bytes stored under key.
func (s *Store) Get(ctx context.Context, key string) (html []byte, err error) {
	_, span := tracer.Start(ctx, "sitestore.Get", trace.WithAttributes(attribute.String("site.key", key)))
	defer func() {
		if err != nil && !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	p, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	html, err = os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	return html, nil
}

// Stat returns size and modification time of the page stored under key.
func (s *Store) Stat(_ context.Context, key string) (Info, error) {
	p, err := s.Path(key)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, ErrNotFound
		}
		return Info{}, &StorageError{Op: "stat", Key: key, Err: err}
	}
	if !fi.Mode().IsRegular() {
		return Info{}, ErrNotFound
	}
	return Info{Key: key, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}
