package remote

import (
	"archive/tar"
	"encoding/json"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"fnpool/internal/errors"
	"fnpool/internal/hashing"
	"fnpool/internal/logging"
	"fnpool/internal/pool"
)

// A bundle is a zstd-compressed tar stream: manifest.json first, then
// one objects/<hash>.json entry per function followed by its
// mappings/<hash>/<lang>/<mapping-hash>.json entries. Objects precede
// their mappings so a bundle imports in stream order.
const (
	manifestEntryName = "manifest.json"
	objectEntryDir    = "objects"
	mappingEntryDir   = "mappings"
)

// Manifest describes a bundle's contents.
type Manifest struct {
	BundleID  string   `json:"bundle_id"`
	Target    string   `json:"target"`
	Created   string   `json:"created"`
	Functions []string `json:"functions"`
}

// ImportResult tallies one bundle import.
type ImportResult struct {
	BundleID string `json:"bundle_id"`
	Target   string `json:"target"`
	Objects  int    `json:"objects"`
	Mappings int    `json:"mappings"`
	Skipped  int    `json:"skipped"`
}

// Export writes hash and its transitive dependencies to w as a bundle.
func Export(store *pool.Store, hash string, w io.Writer, logger *slog.Logger) (*Manifest, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	objects, err := collectClosure(store, hash)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		BundleID: uuid.New().String(),
		Target:   hash,
		Created:  time.Now().UTC().Format(time.RFC3339),
	}
	for _, obj := range objects {
		manifest.Functions = append(manifest.Functions, obj.Hash)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to start compressed stream", err)
	}
	tw := tar.NewWriter(zw)

	// Close both layers even when a write fails; the encoder owns
	// worker goroutines until it is closed.
	mappings, werr := writeEntries(store, tw, manifest, objects)
	terr := tw.Close()
	zerr := zw.Close()
	if werr != nil {
		return nil, werr
	}
	if terr != nil {
		return nil, errors.New(errors.InternalError, "failed to finish bundle archive", terr)
	}
	if zerr != nil {
		return nil, errors.New(errors.InternalError, "failed to finish compressed stream", zerr)
	}

	logger.Info("bundle exported",
		"bundle_id", manifest.BundleID,
		"target", hash,
		"functions", len(manifest.Functions),
		"mappings", mappings)
	return manifest, nil
}

// writeEntries emits the manifest, then each object followed by its
// mapping variants.
func writeEntries(store *pool.Store, tw *tar.Writer, manifest *Manifest, objects []*pool.Object) (int, error) {
	if err := writeTarJSON(tw, manifestEntryName, manifest); err != nil {
		return 0, err
	}

	mappings := 0
	for _, obj := range objects {
		name := path.Join(objectEntryDir, obj.Hash+".json")
		if err := writeTarJSON(tw, name, obj); err != nil {
			return mappings, err
		}
		n, err := exportMappings(store, tw, obj.Hash)
		if err != nil {
			return mappings, err
		}
		mappings += n
	}
	return mappings, nil
}

// exportMappings writes every mapping variant of one object into the
// archive.
func exportMappings(store *pool.Store, tw *tar.Writer, hash string) (int, error) {
	langs, err := store.Languages(hash)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, lang := range langs {
		refs, err := store.ListMappings(hash, lang)
		if err != nil {
			return written, err
		}
		for _, ref := range refs {
			m, _, err := store.LoadMapping(hash, lang, ref.Hash)
			if err != nil {
				return written, err
			}
			name := path.Join(mappingEntryDir, hash, lang, ref.Hash+".json")
			if err := writeTarJSON(tw, name, m); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

// Import reads a bundle stream into the store.
func Import(store *pool.Store, r io.Reader, logger *slog.Logger) (*ImportResult, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.New(errors.SchemaError, "bundle is not a zstd stream", err)
	}
	defer zr.Close()
	tr := tar.NewReader(zr)

	manifest, err := readManifest(tr)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{BundleID: manifest.BundleID, Target: manifest.Target}

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(errors.SchemaError, "bundle archive is corrupt", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := importEntry(store, tr, hdr.Name, result); err != nil {
			return nil, err
		}
	}

	if result.Objects+result.Skipped != len(manifest.Functions) {
		logger.Warn("bundle object count does not match its manifest",
			"bundle_id", manifest.BundleID,
			"manifest", len(manifest.Functions),
			"archive", result.Objects+result.Skipped)
	}

	logger.Info("bundle imported",
		"bundle_id", manifest.BundleID,
		"target", manifest.Target,
		"objects", result.Objects,
		"skipped", result.Skipped,
		"mappings", result.Mappings)
	return result, nil
}

// readManifest consumes the first archive entry, which must be the
// manifest.
func readManifest(tr *tar.Reader) (*Manifest, error) {
	hdr, err := tr.Next()
	if err != nil {
		return nil, errors.New(errors.SchemaError, "bundle archive is empty", err)
	}
	if hdr.Name != manifestEntryName {
		return nil, errors.Newf(errors.SchemaError,
			"bundle must start with %s, found %q", manifestEntryName, hdr.Name)
	}

	var manifest Manifest
	if err := json.NewDecoder(tr).Decode(&manifest); err != nil {
		return nil, errors.New(errors.SchemaError, "bundle manifest does not parse", err)
	}
	return &manifest, nil
}

// importEntry stores one archive entry, dispatching on its path shape.
func importEntry(store *pool.Store, tr *tar.Reader, name string, result *ImportResult) error {
	parts := strings.Split(path.Clean(name), "/")
	switch {
	case len(parts) == 2 && parts[0] == objectEntryDir:
		var obj pool.Object
		if err := json.NewDecoder(tr).Decode(&obj); err != nil {
			return errors.Newf(errors.SchemaError, "bundle entry %q does not parse: %v", name, err)
		}
		entryHash := strings.TrimSuffix(parts[1], ".json")
		if !hashing.IsHash(entryHash) || entryHash != obj.Hash {
			return errors.Newf(errors.SchemaError,
				"bundle entry %q does not match its object hash %s", name, obj.Hash)
		}
		created, err := store.SaveObject(&obj)
		if err != nil {
			return err
		}
		if created {
			result.Objects++
		} else {
			result.Skipped++
		}
		return nil

	case len(parts) == 4 && parts[0] == mappingEntryDir:
		hash, lang := parts[1], parts[2]
		var m pool.Mapping
		if err := json.NewDecoder(tr).Decode(&m); err != nil {
			return errors.Newf(errors.SchemaError, "bundle entry %q does not parse: %v", name, err)
		}
		if _, err := store.SaveMapping(hash, lang, &m); err != nil {
			return err
		}
		result.Mappings++
		return nil

	default:
		return errors.Newf(errors.SchemaError, "unexpected bundle entry %q", name)
	}
}

// writeTarJSON adds one JSON-encoded regular file to the archive.
func writeTarJSON(tw *tar.Writer, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.New(errors.InternalError, "failed to encode bundle entry "+name, err)
	}
	data = append(data, '\n')

	hdr := &tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     int64(len(data)),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return errors.New(errors.InternalError, "failed to write bundle entry "+name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return errors.New(errors.InternalError, "failed to write bundle entry "+name, err)
	}
	return nil
}
