package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/siteinspect/internal/domain"
	"github.com/vbonduro/siteinspect/internal/photostore"
)

// maxAssetBytes caps a single fetched image.
const maxAssetBytes = 50 << 20

// Asset is a fetched image, or the reason it could not be used.
type Asset struct {
	Key    string
	Data   []byte
	Format string // "jpeg", "png" or "gif"
	Width  int
	Height int
	Err    error
}

func (a *Asset) Available() bool {
	return a != nil && a.Err == nil
}

// fetcher loads assets through the object store. With concurrency above one
// the reads overlap, but results always come back in request order.
type fetcher struct {
	store       photostore.PhotoStore
	concurrency int
}

func (f *fetcher) fetchAll(ctx context.Context, keys []string) []*Asset {
	assets := make([]*Asset, len(keys))
	if f.concurrency <= 1 {
		for i, key := range keys {
			assets[i] = f.fetch(ctx, key)
		}
		return assets
	}

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			assets[i] = f.fetch(ctx, key)
			return nil
		})
	}
	// Each goroutine records its own failure, so Wait never errors; it only
	// ensures no fetch outlives the build.
	_ = g.Wait()
	return assets
}

func (f *fetcher) fetch(ctx context.Context, key string) *Asset {
	a := &Asset{Key: key}
	if key == "" {
		a.Err = fmt.Errorf("empty storage key: %w", domain.ErrAssetUnavailable)
		return a
	}

	rc, _, err := f.store.Get(ctx, key)
	if err != nil {
		a.Err = fmt.Errorf("failed to get %s: %v: %w", key, err, domain.ErrAssetUnavailable)
		return a
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxAssetBytes+1))
	if err != nil {
		a.Err = fmt.Errorf("failed to read %s: %v: %w", key, err, domain.ErrAssetUnavailable)
		return a
	}
	if len(data) > maxAssetBytes {
		a.Err = fmt.Errorf("%s exceeds %d bytes: %w", key, maxAssetBytes, domain.ErrAssetUnavailable)
		return a
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		a.Err = fmt.Errorf("failed to decode %s: %v: %w", key, err, domain.ErrAssetUnavailable)
		return a
	}
	a.Data = data
	a.Format = format
	a.Width = cfg.Width
	a.Height = cfg.Height
	return a
}
