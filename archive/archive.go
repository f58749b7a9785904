package archive

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/trackio/internal/compress"
	"github.com/hupe1980/trackio/internal/fs"
	"github.com/hupe1980/trackio/internal/npy"
	"github.com/hupe1980/trackio/lineage"
	"github.com/hupe1980/trackio/tensor"
)

// Container extensions and entry names.
const (
	// ExtTrk is the single-batch container extension.
	ExtTrk = ".trk"
	// ExtTrks is the multi-batch container extension. Save always produces
	// this form.
	ExtTrks = ".trks"

	// EntryRaw holds the raw intensity tensor.
	EntryRaw = "raw.npy"
	// EntryTracked holds the tracked-label tensor.
	EntryTracked = "tracked.npy"
	// EntryLineage holds one lineage graph (single-batch form).
	EntryLineage = "lineage.json"
	// EntryLineages holds the ordered lineage graph list (multi-batch form).
	EntryLineages = "lineages.json"
)

// Archive is a decoded container, always in multi-batch form: a single-batch
// container loads as a one-element lineage list.
type Archive struct {
	// Lineages holds one graph per batch item, in batch order.
	Lineages []lineage.Graph
	// X is the raw intensity tensor.
	X *tensor.Volume
	// Y is the tracked-label tensor, same shape as X.
	Y *tensor.Volume
}

// Batches returns the number of batch items.
func (a *Archive) Batches() int { return len(a.Lineages) }

// Save writes lineages and the raw/tracked tensor pair as one container at
// path, which must end in ".trks".
//
// Each entry is staged through a scoped temporary file that is removed on
// every exit path. The write itself is not atomic: an interrupted save leaves
// a truncated container that the caller must treat as failed and redo.
func Save(path string, lineages []lineage.Graph, raw, tracked *tensor.Volume, optFns ...func(*Options)) error {
	o := DefaultOptions
	for _, fn := range optFns {
		fn(&o)
	}

	if !strings.HasSuffix(strings.ToLower(path), ExtTrks) {
		return &InvalidExtensionError{Path: path, Allowed: []string{ExtTrks}}
	}
	if raw == nil || tracked == nil {
		return errors.New("raw and tracked volumes are required")
	}
	if !raw.SameShape(tracked) {
		return &ShapeMismatchError{Raw: raw.Shape(), Tracked: tracked.Shape()}
	}
	if raw.Rank() > 0 && len(lineages) != raw.Dim(0) {
		return &LineageCountError{Graphs: len(lineages), Batches: raw.Dim(0)}
	}

	f, err := o.FS.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", path, err)
	}

	if err := writeContainer(f, o, lineages, raw, tracked); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync archive: %w", err)
	}
	return f.Close()
}

func writeContainer(w io.Writer, o Options, lineages []lineage.Graph, raw, tracked *tensor.Volume) error {
	cw, err := compress.WrapWriter(w, o.Compression.internal())
	if err != nil {
		return err
	}

	tw := tar.NewWriter(cw)
	if err := addEntry(tw, o.FS, EntryLineages, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", " ")
		return enc.Encode(lineages)
	}); err != nil {
		return err
	}
	if err := addEntry(tw, o.FS, EntryRaw, func(w io.Writer) error {
		return npy.Encode(w, raw)
	}); err != nil {
		return err
	}
	if err := addEntry(tw, o.FS, EntryTracked, func(w io.Writer) error {
		return npy.Encode(w, tracked)
	}); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalize container: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("flush compressed stream: %w", err)
	}
	return nil
}

// addEntry encodes one blob into a temp file, then copies it into the tar.
// The temp file is removed on every exit path.
func addEntry(tw *tar.Writer, fsys fs.FileSystem, name string, encode func(io.Writer) error) error {
	tmp, tmpPath, err := fsys.CreateTemp("", "trackio-"+name+"-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}
	defer func() {
		tmp.Close()
		fsys.Remove(tmpPath)
	}()

	if err := encode(tmp); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return fmt.Errorf("stat staged %s: %w", name, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind staged %s: %w", name, err)
	}

	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    info.Size(),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header for %s: %w", name, err)
	}
	if _, err := io.Copy(tw, tmp); err != nil {
		return fmt.Errorf("copy %s into container: %w", name, err)
	}
	return nil
}

// Load reads the container at path. The extension selects the metadata form:
// ".trk" expects a single lineage graph, ".trks" an ordered list. The result
// is always normalized to the multi-batch shape.
func Load(p string, optFns ...func(*Options)) (*Archive, error) {
	o := DefaultOptions
	for _, fn := range optFns {
		fn(&o)
	}

	var multi bool
	switch strings.ToLower(filepath.Ext(p)) {
	case ExtTrks:
		multi = true
	case ExtTrk:
		multi = false
	default:
		return nil, &InvalidExtensionError{Path: p, Allowed: []string{ExtTrk, ExtTrks}}
	}

	f, err := o.FS.OpenFile(p, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", p, err)
	}
	defer f.Close()

	return Decode(f, multi)
}

// Decode reads a container from r. multi selects the lineages.json (true)
// or lineage.json (false) metadata entry.
func Decode(r io.Reader, multi bool) (*Archive, error) {
	cr, _, err := compress.NewReader(r)
	if err != nil {
		return nil, &MalformedArchiveError{cause: err}
	}

	entries := make(map[string][]byte)
	tr := tar.NewReader(cr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MalformedArchiveError{cause: err}
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, &MalformedArchiveError{Entry: hdr.Name, cause: err}
		}
		// Some writers prefix entries with "./".
		entries[path.Base(hdr.Name)] = data
	}

	x, err := decodeTensor(entries, EntryRaw)
	if err != nil {
		return nil, err
	}
	y, err := decodeTensor(entries, EntryTracked)
	if err != nil {
		return nil, err
	}

	graphs, err := decodeLineages(entries, multi)
	if err != nil {
		return nil, err
	}

	return &Archive{Lineages: graphs, X: x, Y: y}, nil
}

func decodeTensor(entries map[string][]byte, name string) (*tensor.Volume, error) {
	data, ok := entries[name]
	if !ok {
		return nil, &MissingEntryError{Entry: name}
	}
	v, err := npy.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &MalformedArchiveError{Entry: name, cause: err}
	}
	return v, nil
}

func decodeLineages(entries map[string][]byte, multi bool) ([]lineage.Graph, error) {
	if multi {
		data, ok := entries[EntryLineages]
		if !ok {
			return nil, &MissingEntryError{Entry: EntryLineages}
		}
		var graphs []lineage.Graph
		if err := json.Unmarshal(data, &graphs); err != nil {
			return nil, &MalformedArchiveError{Entry: EntryLineages, cause: err}
		}
		return graphs, nil
	}

	data, ok := entries[EntryLineage]
	if !ok {
		return nil, &MissingEntryError{Entry: EntryLineage}
	}
	var g lineage.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, &MalformedArchiveError{Entry: EntryLineage, cause: err}
	}
	return []lineage.Graph{g}, nil
}
