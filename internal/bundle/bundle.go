// Package bundle lays out converted images for download: relative paths
// per image and an optional zip archive.
package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"framepress/internal/convert"
	"framepress/internal/raster"
	"framepress/internal/sequence"
)

// Entry maps one image to its place in the output tree.
type Entry struct {
	ImageID string
	Path    string // slash-separated, relative to the output root
}

// Plan assigns a relative output path to every image. When the batch holds
// more than one sequence, each real sequence gets its own folder; singles
// stay at the root. Colliding names get a " (N)" suffix.
func Plan(seqs []*sequence.Sequence, format raster.Format) []Entry {
	multi := len(seqs) > 1
	used := make(map[string]bool)

	var entries []Entry
	for _, seq := range seqs {
		dir := ""
		if multi && seq.IsSequence {
			dir = folderName(seq.BaseName)
		}
		for _, img := range seq.Images {
			p := unique(path.Join(dir, convert.SuggestedName(img.Name, format)), used)
			entries = append(entries, Entry{ImageID: img.ID, Path: p})
		}
	}
	return entries
}

// ZipName is "<baseName>.zip" for a batch that is exactly one sequence and
// "<format>-converted.zip" otherwise.
func ZipName(seqs []*sequence.Sequence, format raster.Format) string {
	if len(seqs) == 1 && seqs[0].IsSequence {
		return folderName(seqs[0].BaseName) + ".zip"
	}
	return string(format) + "-converted.zip"
}

// WriteZip stores each entry's file from root into w. Entries are stored
// without compression since the payloads already are compressed.
func WriteZip(w io.Writer, root string, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := addFile(zw, root, e.Path); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, root, rel string) error {
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = rel
	hdr.Method = zip.Store

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("zip %s: %w", rel, err)
	}
	_, err = io.Copy(dst, f)
	return err
}

func folderName(name string) string {
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "sequence"
	}
	return name
}

// unique keys on the lower-cased path so names that differ only in case
// never overwrite each other on case-insensitive filesystems.
func unique(p string, used map[string]bool) string {
	if key := strings.ToLower(p); !used[key] {
		used[key] = true
		return p
	}
	ext := path.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if key := strings.ToLower(candidate); !used[key] {
			used[key] = true
			return candidate
		}
	}
}
