package blobstore

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/btcsuite/btcutil/base58"
	"github.com/EzRa021/Muhu-voice-app/internal/boot"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
)

// blobstore is a content-addressed object store for uploaded audio. The
// reference is derived from the content hash, so re-uploading the same bytes
// is idempotent.
type blobstore struct {
	dir string
}

func New(config *boot.Config) (*blobstore, error) {
	dir := path.Join(config.DataDirectory(), "audio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audio directory: %w", err)
	}
	return &blobstore{dir}, nil
}

func (b *blobstore) Upload(ctx context.Context, data []byte) (string, error) {
	shaHash := sha256.New()
	shaHash.Write(data)
	ref := base58.Encode(shaHash.Sum(nil))

	filename := path.Join(b.dir, ref)
	if _, err := os.Stat(filename); err == nil {
		return ref, nil
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing audio object: %v", model.ErrorStorageFailure, err)
	}
	return ref, nil
}

func (b *blobstore) URL(ref string) (string, error) {
	filename := path.Join(b.dir, ref)
	if _, err := os.Stat(filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", model.ErrorNotFound
		}
		return "", fmt.Errorf("checking audio object: %w", err)
	}
	return "file://" + filename, nil
}
