// Package blob stores attachment bytes on local disk and resolves
// time-limited signed download URLs for them.
package blob

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotExist = errors.New("blob does not exist")

// PublicPath is the URL path prefix downloads are served under.
const PublicPath = "/files/"

// Config defines the blob store parameters, parseable from environment
// variables.
type Config struct {
	Dir    string        `env:"BLOB_DIR" envDefault:"uploads"`
	Secret string        `env:"BLOB_SECRET" envDefault:"dev-only-secret"`
	URLTTL time.Duration `env:"BLOB_URL_TTL" envDefault:"15m"`
}

// Store writes blobs under a single directory with uuid-prefixed object
// keys and signs download URLs with an HMAC over key and expiry.
type Store struct {
	logger *zap.SugaredLogger
	dir    string
	secret []byte
	urlTTL time.Duration
	now    func() time.Time
}

// NewStore ensures the storage directory exists.
func NewStore(logger *zap.SugaredLogger, cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob dir: %w", err)
	}

	return &Store{
		logger: logger,
		dir:    cfg.Dir,
		secret: []byte(cfg.Secret),
		urlTTL: cfg.URLTTL,
		now:    time.Now,
	}, nil
}

// Save streams r to disk under a fresh object key and returns the key and
// the number of bytes written. A failed write removes the partial file so no
// attachment row can ever reference it.
func (s *Store) Save(name string, r io.Reader) (string, int64, error) {
	key := uuid.New().String() + "-" + filepath.Base(name)
	path := filepath.Join(s.dir, key)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating blob file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("writing blob: %w", err)
	}

	s.logger.Debugf("Stored blob %s (%d bytes)", key, size)

	return key, size, nil
}

// URL is the unsigned public path of a stored blob.
func (s *Store) URL(key string) string {
	return PublicPath + key
}

// SignedURL resolves a time-limited download URL for an existing blob.
func (s *Store) SignedURL(key string) (string, error) {
	if _, err := os.Stat(filepath.Join(s.dir, filepath.Base(key))); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotExist
		}
		return "", err
	}

	expires := s.now().Add(s.urlTTL).Unix()
	return fmt.Sprintf("%s%s?expires=%d&token=%s", PublicPath, key, expires, s.sign(key, expires)), nil
}

// Verify reports whether a token matches the key and the expiry is still in
// the future.
func (s *Store) Verify(key string, expires int64, token string) bool {
	if s.now().Unix() >= expires {
		return false
	}
	return hmac.Equal([]byte(token), []byte(s.sign(key, expires)))
}

// Open returns the stored bytes for serving.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return f, nil
}

func (s *Store) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	io.WriteString(mac, key)
	io.WriteString(mac, "\n")
	io.WriteString(mac, strconv.FormatInt(expires, 10))
	return hex.EncodeToString(mac.Sum(nil))
}
