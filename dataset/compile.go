package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/trackio"
	"github.com/hupe1980/trackio/archive"
	"github.com/hupe1980/trackio/lineage"
	"github.com/hupe1980/trackio/tensor"
)

// CompileOptions configures CompileFolder.
type CompileOptions struct {
	// Concurrency bounds the number of archives decoded in parallel.
	Concurrency int
	// Compression applies to the written container.
	Compression archive.Compression
	// Logger receives compile progress events.
	Logger *trackio.Logger
}

// DefaultCompileOptions are the options used when none are given.
var DefaultCompileOptions = CompileOptions{
	Concurrency: runtime.NumCPU(),
	Compression: archive.CompressionNone,
}

// WithCompileConcurrency bounds the number of archives decoded in parallel.
func WithCompileConcurrency(n int) func(*CompileOptions) {
	return func(o *CompileOptions) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithCompileCompression sets the compression codec of the output container.
func WithCompileCompression(c archive.Compression) func(*CompileOptions) {
	return func(o *CompileOptions) {
		o.Compression = c
	}
}

// WithCompileLogger sets the logger for compile progress events.
func WithCompileLogger(logger *trackio.Logger) func(*CompileOptions) {
	return func(o *CompileOptions) {
		o.Logger = logger
	}
}

// CompileFolder merges every .trk file in dir into one multi-batch container
// at out. Files are ordered by natural sort of their names, so "t2.trk" sorts
// before "t10.trk", and every movie must share one tensor shape.
func CompileFolder(ctx context.Context, dir, out string, optFns ...func(*CompileOptions)) error {
	o := DefaultCompileOptions
	for _, fn := range optFns {
		fn(&o)
	}
	logger := o.Logger
	if logger == nil {
		logger = trackio.NoopLogger()
	}

	names, err := listTrkFiles(dir)
	if err != nil {
		logger.LogCompile(ctx, dir, out, 0, err)
		return err
	}
	if len(names) == 0 {
		err := fmt.Errorf("no .trk files in %s", dir)
		logger.LogCompile(ctx, dir, out, 0, err)
		return err
	}

	archives := make([]*archive.Archive, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Concurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ar, err := archive.Load(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			archives[i] = ar
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.LogCompile(ctx, dir, out, 0, err)
		return err
	}

	lineages, raw, tracked, err := mergeArchives(archives)
	if err != nil {
		logger.LogCompile(ctx, dir, out, 0, err)
		return err
	}

	err = archive.Save(out, lineages, raw, tracked, archive.WithCompression(o.Compression))
	logger.LogCompile(ctx, dir, out, len(lineages), err)
	return err
}

func listTrkFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), archive.ExtTrk) {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })
	return names, nil
}

// mergeArchives stacks single-movie archives along a new leading batch axis.
func mergeArchives(archives []*archive.Archive) ([]lineage.Graph, *tensor.Volume, *tensor.Volume, error) {
	lineages := make([]lineage.Graph, 0, len(archives))
	raws := make([]*tensor.Volume, 0, len(archives))
	trackeds := make([]*tensor.Volume, 0, len(archives))

	for i, ar := range archives {
		if got := ar.Batches(); got != 1 {
			return nil, nil, nil, fmt.Errorf("archive %d holds %d batch items, want 1", i, got)
		}
		lineages = append(lineages, ar.Lineages[0])
		raws = append(raws, ar.X)
		trackeds = append(trackeds, ar.Y)
	}

	raw, err := stackVolumes(raws)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stack raw tensors: %w", err)
	}
	tracked, err := stackVolumes(trackeds)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stack tracked tensors: %w", err)
	}
	return lineages, raw, tracked, nil
}

func stackVolumes(vols []*tensor.Volume) (*tensor.Volume, error) {
	first := vols[0]
	for i, v := range vols[1:] {
		if v.DType() != first.DType() {
			return nil, fmt.Errorf("volume %d has dtype %s, want %s", i+1, v.DType(), first.DType())
		}
		if !v.SameShape(first) {
			return nil, fmt.Errorf("volume %d has shape %v, want %v", i+1, v.Shape(), first.Shape())
		}
	}

	shape := append([]int{len(vols)}, first.Shape()...)
	if first.DType() == tensor.Int32 {
		out := tensor.NewInt32(shape...)
		dst := out.Ints()
		for i, v := range vols {
			copy(dst[i*first.Len():], v.Ints())
		}
		return out, nil
	}
	out := tensor.NewFloat64(shape...)
	dst := out.Floats()
	for i, v := range vols {
		copy(dst[i*first.Len():], v.Floats())
	}
	return out, nil
}

// naturalLess orders strings with embedded integers numerically, so that
// "t2" < "t10".
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			an, arest := takeNumber(a)
			bn, brest := takeNumber(b)
			if an != bn {
				return an < bn
			}
			a, b = arest, brest
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func takeNumber(s string) (uint64, string) {
	i := 0
	var n uint64
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + uint64(s[i]-'0')
		i++
	}
	return n, s[i:]
}
