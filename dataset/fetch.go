package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/time/rate"

	"github.com/hupe1980/trackio"
	"github.com/hupe1980/trackio/blobstore"
	"github.com/hupe1980/trackio/internal/fs"
)

// ErrChecksumMismatch is returned when a downloaded archive does not match
// its expected checksum.
var ErrChecksumMismatch = errors.New("archive checksum mismatch")

// fetchChunkSize is the copy granularity used for rate limiting.
const fetchChunkSize = 64 * 1024

// FetchOptions configures a Fetcher.
type FetchOptions struct {
	// Limiter throttles download bandwidth in bytes per second. Nil means
	// unthrottled.
	Limiter *rate.Limiter
	// FS is the file system the archive is written to.
	FS fs.FileSystem
	// Logger receives fetch events.
	Logger *trackio.Logger
}

// DefaultFetchOptions are the options used when none are given.
var DefaultFetchOptions = FetchOptions{
	FS: fs.Default,
}

// WithFetchRateLimit throttles downloads to bytesPerSec.
func WithFetchRateLimit(bytesPerSec int) func(*FetchOptions) {
	return func(o *FetchOptions) {
		if bytesPerSec > 0 {
			o.Limiter = rate.NewLimiter(rate.Limit(bytesPerSec), fetchChunkSize)
		}
	}
}

// WithFetchFileSystem overrides the destination file system, mainly for fault
// injection in tests.
func WithFetchFileSystem(fsys fs.FileSystem) func(*FetchOptions) {
	return func(o *FetchOptions) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.FS = fsys
	}
}

// WithFetchLogger sets the logger for fetch events.
func WithFetchLogger(logger *trackio.Logger) func(*FetchOptions) {
	return func(o *FetchOptions) {
		o.Logger = logger
	}
}

// Fetcher downloads archives from a blob store to local files.
type Fetcher struct {
	store   blobstore.Store
	limiter *rate.Limiter
	fsys    fs.FileSystem
	logger  *trackio.Logger
}

// NewFetcher creates a Fetcher over the given store.
func NewFetcher(store blobstore.Store, optFns ...func(*FetchOptions)) *Fetcher {
	o := DefaultFetchOptions
	for _, fn := range optFns {
		fn(&o)
	}
	logger := o.Logger
	if logger == nil {
		logger = trackio.NoopLogger()
	}
	return &Fetcher{
		store:   store,
		limiter: o.Limiter,
		fsys:    o.FS,
		logger:  logger,
	}
}

// Fetch downloads blob name into dest. If checksum is non-empty the stream
// is verified against it (hex SHA-256) and dest is removed on mismatch.
// It returns the number of bytes written.
func (f *Fetcher) Fetch(ctx context.Context, name, dest, checksum string) (int64, error) {
	n, err := f.fetch(ctx, name, dest, checksum)
	f.logger.LogFetch(ctx, name, n, err)
	return n, err
}

func (f *Fetcher) fetch(ctx context.Context, name, dest, checksum string) (int64, error) {
	blob, err := f.store.Open(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("open blob %s: %w", name, err)
	}
	defer blob.Close()

	out, err := f.fsys.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	var digest hash.Hash
	var w io.Writer = out
	if checksum != "" {
		digest = sha256.New()
		w = io.MultiWriter(out, digest)
	}

	n, err := f.copy(ctx, w, blob)
	if err != nil {
		out.Close()
		f.fsys.Remove(dest)
		return n, err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		f.fsys.Remove(dest)
		return n, fmt.Errorf("sync %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		f.fsys.Remove(dest)
		return n, err
	}

	if digest != nil {
		if got := hex.EncodeToString(digest.Sum(nil)); got != checksum {
			f.fsys.Remove(dest)
			return n, fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, checksum)
		}
	}
	return n, nil
}

// copy moves data in fixed-size chunks so the limiter sees steady demand.
func (f *Fetcher) copy(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, fetchChunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if f.limiter != nil {
				if err := f.limiter.WaitN(ctx, n); err != nil {
					return written, err
				}
			}
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}
