package blob

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/opslens/runboard/internal/config"
)

var ErrNotFound = errors.New("object not found")

type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// Store holds archived report exports.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// New builds the export store backend selected by configuration.
func New(ctx context.Context, cfg config.ExportsConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage)) {
	case "s3":
		awsCfg, err := loadS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return newS3Store(cfg, awsCfg)
	default:
		return newLocalStore(cfg)
	}
}
