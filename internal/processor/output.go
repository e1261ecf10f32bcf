package processor

import (
	"os"
	"path/filepath"

	"framepress/internal/bundle"
	"framepress/internal/raster"
	"framepress/internal/sequence"
)

// writeOutput writes data to destPath through a temp file in the same
// directory, so a reader never sees a partial file.
func writeOutput(destPath string, data []byte) error {
	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(destDir, "framepress-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return replaceFile(tmpFile.Name(), destPath)
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

// writeBundle zips every successfully converted image into outputDir and
// returns the archive path.
func writeBundle(seqs []*sequence.Sequence, reports []SequenceReport, entries []bundle.Entry, format raster.Format, outputDir string) (string, error) {
	done := make(map[string]bool)
	for _, rep := range reports {
		for _, img := range rep.Images {
			if img.Status == StatusDone {
				done[img.ID] = true
			}
		}
	}
	var keep []bundle.Entry
	for _, e := range entries {
		if done[e.ImageID] {
			keep = append(keep, e)
		}
	}

	zipPath := filepath.Join(outputDir, bundle.ZipName(seqs, format))
	tmp, err := os.CreateTemp(outputDir, "framepress-*.zip.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if err := bundle.WriteZip(tmp, outputDir, keep); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := replaceFile(tmp.Name(), zipPath); err != nil {
		return "", err
	}
	return zipPath, nil
}
