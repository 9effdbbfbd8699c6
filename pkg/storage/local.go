package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

// Config is read from the environment (UPLOAD_DIR, UPLOAD_BASE_URL).
type Config struct {
	Dir     string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	BaseURL string `envconfig:"UPLOAD_BASE_URL" default:"/static"`
	MaxSize int64  `envconfig:"UPLOAD_MAX_SIZE" default:"5242880"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	return &cfg, nil
}

// Store persists uploaded files and hands back a public URL.
type Store interface {
	Save(file *multipart.FileHeader) (string, error)
}

type localStore struct {
	cfg *Config
}

// NewLocalStore creates a disk-backed store rooted at cfg.Dir.
func NewLocalStore(cfg *Config) (Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &localStore{cfg: cfg}, nil
}

func (s *localStore) Save(file *multipart.FileHeader) (string, error) {
	if file.Size > s.cfg.MaxSize {
		return "", fmt.Errorf("file exceeds maximum size of %d bytes", s.cfg.MaxSize)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))
	dstPath := filepath.Join(s.cfg.Dir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.cfg.BaseURL + "/" + name, nil
}
