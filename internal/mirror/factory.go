package mirror

import (
	"context"
	"fmt"
	"os"

	"tidy-go/internal/config"
)

// NewMirrorFromConfig creates a Mirror implementation based on the mirror
// config type. Type "none" (or empty) returns nil: the caller treats a nil
// mirror as mirroring disabled.
func NewMirrorFromConfig(ctx context.Context, cfg config.MirrorConfig) (Mirror, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("root required for filesystem mirror")
		}
		return NewFilesystemMirror(cfg.Root)
	case "s3":
		opts := S3Options{
			Bucket: cfg.S3Bucket,
			Prefix: cfg.S3Prefix,
			Region: cfg.S3Region,
		}
		if cfg.S3AccessKeyEnv != "" {
			opts.AccessKey = os.Getenv(cfg.S3AccessKeyEnv)
		}
		if cfg.S3SecretKeyEnv != "" {
			opts.SecretKey = os.Getenv(cfg.S3SecretKeyEnv)
		}
		return NewS3Mirror(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown mirror type: %s", cfg.Type)
	}
}
