package storage

import (
	"context"
	"errors"
	"fmt"

	"mixologue-backend/config"

	"go.uber.org/zap"
)

var ErrInvalidName = errors.New("invalid asset name")

// Store persists generated images and hands back the reference saved on the
// cocktail record.
type Store interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	// Delete removes an asset previously returned by Save. It reports false
	// when the reference is not owned by this store or is already gone.
	Delete(ctx context.Context, ref string) (bool, error)
	// Owns reports whether ref was produced by this store.
	Owns(ref string) bool
}

// New builds the store selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStore(cfg.StaticDir, cfg.StaticURLPrefix)
	case "minio":
		return NewMinioStore(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		}, log)
	case "oss":
		return NewOSSStore(cfg.OSSEndpoint, cfg.OSSAccessKeyID, cfg.OSSAccessKeySecret, cfg.OSSBucketName)
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
}
