package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/trackio"
	"github.com/hupe1980/trackio/blobstore"
	"github.com/hupe1980/trackio/registry"
)

// Catalog is the registry surface a Publisher needs. *registry.Catalog
// satisfies it.
type Catalog interface {
	Resolve(ctx context.Context, name string) (*registry.Dataset, error)
	Publish(ctx context.Context, ds registry.Dataset) (*registry.Dataset, error)
}

// PublishOptions configures a Publisher.
type PublishOptions struct {
	// Logger receives publish events.
	Logger *trackio.Logger
}

// DefaultPublishOptions are the options used when none are given.
var DefaultPublishOptions = PublishOptions{}

// WithPublishLogger sets the logger for publish events.
func WithPublishLogger(logger *trackio.Logger) func(*PublishOptions) {
	return func(o *PublishOptions) {
		o.Logger = logger
	}
}

// Publisher uploads archives to a blob store and registers them in a catalog.
type Publisher struct {
	store   blobstore.Store
	catalog Catalog
	logger  *trackio.Logger
}

// NewPublisher creates a Publisher over the given store and catalog.
func NewPublisher(store blobstore.Store, catalog Catalog, optFns ...func(*PublishOptions)) *Publisher {
	o := DefaultPublishOptions
	for _, fn := range optFns {
		fn(&o)
	}
	logger := o.Logger
	if logger == nil {
		logger = trackio.NoopLogger()
	}
	return &Publisher{
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
}

// Publish streams the archive at archivePath into the store under the
// dataset name and registers the new revision. The catalog write is fenced on
// the revision seen before the upload, so two concurrent publishers cannot
// both succeed.
func (p *Publisher) Publish(ctx context.Context, name, archivePath string) (*registry.Dataset, error) {
	ds, err := p.publish(ctx, name, archivePath)
	if err != nil {
		p.logger.LogPublish(ctx, name, 0, err)
		return nil, err
	}
	p.logger.LogPublish(ctx, name, ds.Revision, nil)
	return ds, nil
}

func (p *Publisher) publish(ctx context.Context, name, archivePath string) (*registry.Dataset, error) {
	current, err := p.catalog.Resolve(ctx, name)
	if err != nil && !errors.Is(err, registry.ErrNotFound) {
		return nil, err
	}

	key := name + filepath.Ext(archivePath)
	size, checksum, err := p.upload(ctx, key, archivePath)
	if err != nil {
		return nil, err
	}

	ds := registry.Dataset{
		Name:     name,
		Key:      key,
		Checksum: checksum,
		Size:     size,
	}
	if current != nil {
		ds.Revision = current.Revision
	}
	return p.catalog.Publish(ctx, ds)
}

// upload streams the file into the store, hashing it on the way through.
func (p *Publisher) upload(ctx context.Context, key, archivePath string) (int64, string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, "", fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer f.Close()

	w, err := p.store.Create(ctx, key)
	if err != nil {
		return 0, "", fmt.Errorf("create blob %s: %w", key, err)
	}

	digest := sha256.New()
	n, err := io.Copy(io.MultiWriter(w, digest), f)
	if err != nil {
		w.Close()
		return n, "", fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return n, "", fmt.Errorf("commit blob %s: %w", key, err)
	}

	return n, hex.EncodeToString(digest.Sum(nil)), nil
}
