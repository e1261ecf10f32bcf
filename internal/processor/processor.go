package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"framepress/internal/bundle"
	"framepress/internal/convert"
	"framepress/internal/raster"
	"framepress/internal/sequence"
	"framepress/pkg/imgutil"
)

// Run discovers images under root, groups them into sequences and, in
// ModeConvert, converts every image on a worker pool. A failing image is
// recorded in its report and never stops its siblings.
func Run(ctx context.Context, root string, opts Options, updates chan<- ProgressUpdate) (Summary, []SequenceReport, error) {
	log := opts.Logger.With().Str("component", "processor").Logger()

	files, err := Discover(ctx, root, opts.OutputDir, log)
	if err != nil {
		return Summary{}, nil, err
	}

	gap := opts.GapThreshold
	if gap <= 0 {
		gap = sequence.DefaultGapThreshold
	}
	seqs := sequence.Builder{GapThreshold: gap}.Detect(files)
	reports := newReports(seqs, opts.Format)

	summary := Summary{Sequences: len(seqs)}
	for _, seq := range seqs {
		summary.Images += len(seq.Images)
		summary.OriginalBytes += seq.TotalOriginalSize
		summary.MissingFrames += len(seq.MissingFrames)
	}
	log.Info().Int("images", summary.Images).Int("sequences", summary.Sequences).Msg("detected")

	if opts.Mode == ModeDetect {
		return summary, reports, nil
	}

	if err := opts.Settings.Validate(); err != nil {
		return summary, reports, err
	}
	if opts.OutputDir == "" {
		return summary, reports, errors.New("output directory required")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return summary, reports, err
	}

	format := opts.Format
	if format == "" {
		format = raster.FormatWebP
	}
	rasterizer := opts.Rasterizer
	if rasterizer == nil {
		rasterizer = raster.New(opts.Filter)
	}
	pipeline := convert.New(rasterizer, format, opts.Logger)
	pipeline.Measure = opts.Fidelity

	entries := bundle.Plan(seqs, format)
	relByID := make(map[string]string, len(entries))
	for _, e := range entries {
		relByID[e.ImageID] = e.Path
	}

	if updates != nil {
		updates <- ProgressUpdate{TotalDelta: summary.Images}
	}

	jobs := make(chan Job)
	events := make(chan event)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, jobs, events, seqs, pipeline, opts.Settings)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for ev := range events {
			collect(ev, reports, &summary, updates, opts)
		}
	}()

	go func() {
		defer close(jobs)
		for si, seq := range seqs {
			for ii, img := range seq.Images {
				rel := relByID[img.ID]
				job := Job{
					Seq:     si,
					Index:   ii,
					RelPath: rel,
					OutPath: filepath.Join(opts.OutputDir, filepath.FromSlash(rel)),
				}
				select {
				case jobs <- job:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	wg.Wait()
	close(events)
	<-collectorDone

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return summary, reports, err
	}

	if opts.Zip && summary.Converted > 0 {
		zipPath, err := writeBundle(seqs, reports, entries, format, opts.OutputDir)
		if err != nil {
			return summary, reports, fmt.Errorf("write bundle: %w", err)
		}
		summary.ZipPath = zipPath
		log.Info().Str("path", zipPath).Msg("bundle written")
	}

	log.Info().
		Int("converted", summary.Converted).
		Int("errors", summary.Errors).
		Int64("bytes", summary.ConvertedBytes).
		Msg("batch finished")
	return summary, reports, nil
}

// event moves one image to a new status. result is set for terminal
// statuses only.
type event struct {
	seq    int
	index  int
	status Status
	result *ImageResult
}

func worker(ctx context.Context, jobs <-chan Job, events chan<- event, seqs []*sequence.Sequence, p *convert.Pipeline, settings convert.Settings) {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			return
		}

		events <- event{seq: job.Seq, index: job.Index, status: StatusConverting}

		img := seqs[job.Seq].Images[job.Index]
		res := convertImage(ctx, p, img, job, settings)
		events <- event{seq: job.Seq, index: job.Index, status: res.Status, result: &res}
	}
}

func convertImage(ctx context.Context, p *convert.Pipeline, img *sequence.Image, job Job, settings convert.Settings) ImageResult {
	res := ImageResult{Status: StatusError}

	data, err := readSource(img)
	if err != nil {
		res.Error = (&convert.Error{Kind: convert.KindDecode, Name: img.Name, Err: err}).Error()
		return res
	}

	out, err := p.ConvertData(ctx, img.Name, data, settings)
	if err != nil {
		res.Error = err.Error()
		res.Canceled = errors.Is(err, &convert.Error{Kind: convert.KindCanceled})
		return res
	}

	if err := writeOutput(job.OutPath, out.Data); err != nil {
		res.Error = fmt.Sprintf("%s: write output: %v", img.Name, err)
		return res
	}

	if md, err := sourceMetadata(data); err == nil {
		res.Metadata = md.Categories()
	} else {
		p.Log.Debug().Err(err).Str("image", img.Name).Msg("metadata scan failed")
	}

	res.Status = StatusDone
	res.ConvertedSize = out.Size
	res.OutputPath = job.OutPath
	res.Width = out.Width
	res.Height = out.Height
	res.Fidelity = out.Fidelity
	return res
}

func collect(ev event, reports []SequenceReport, summary *Summary, updates chan<- ProgressUpdate, opts Options) {
	rep := &reports[ev.seq]
	ir := &rep.Images[ev.index]

	next, err := ir.Status.Advance(ev.status)
	if err != nil {
		opts.Logger.Error().Err(err).Str("image", ir.Name).Msg("dropped status event")
		return
	}
	ir.Status = next
	if ev.result == nil {
		return
	}

	r := ev.result
	ir.Error = r.Error
	ir.Metadata = r.Metadata
	ir.Fidelity = r.Fidelity
	ir.Canceled = r.Canceled

	var update ProgressUpdate
	switch next {
	case StatusDone:
		ir.ConvertedSize = r.ConvertedSize
		ir.OutputPath = r.OutputPath
		ir.Width, ir.Height = r.Width, r.Height
		rep.TotalConvertedSize += r.ConvertedSize

		summary.Converted++
		summary.ConvertedBytes += r.ConvertedSize
		if len(r.Metadata) > 0 {
			summary.MetadataStripped++
		}
		update = ProgressUpdate{
			ConvertedDelta:      1,
			OriginalBytesDelta:  ir.OriginalSize,
			ConvertedBytesDelta: r.ConvertedSize,
		}
		opts.Logger.Debug().Str("image", ir.Name).Str("sequence", rep.BaseName).Int64("bytes", r.ConvertedSize).Msg("converted")
	case StatusError:
		if r.Canceled {
			summary.Canceled++
			opts.Logger.Debug().Str("image", ir.Name).Str("sequence", rep.BaseName).Msg("canceled in flight")
			return
		}
		summary.Errors++
		update = ProgressUpdate{ErrorDelta: 1}
		opts.Logger.Warn().Str("image", ir.Name).Str("sequence", rep.BaseName).Str("status", next.String()).Msg(r.Error)
	}

	if updates != nil {
		updates <- update
	}
}

func newReports(seqs []*sequence.Sequence, format raster.Format) []SequenceReport {
	if format == "" {
		format = raster.FormatWebP
	}
	reports := make([]SequenceReport, 0, len(seqs))
	for _, seq := range seqs {
		rep := SequenceReport{
			ID:                seq.ID,
			BaseName:          seq.BaseName,
			IsSequence:        seq.IsSequence,
			MissingFrames:     seq.MissingFrames,
			TotalOriginalSize: seq.TotalOriginalSize,
			Images:            make([]ImageResult, 0, len(seq.Images)),
		}
		for _, img := range seq.Images {
			rep.Images = append(rep.Images, ImageResult{
				ID:           img.ID,
				Name:         img.Name,
				BaseName:     img.BaseName,
				Frame:        img.Frame,
				HasFrame:     img.HasFrame,
				OriginalSize: img.Size,
				OutputName:   convert.SuggestedName(img.Name, format),
				Status:       StatusPending,
			})
		}
		reports = append(reports, rep)
	}
	return reports
}

func readSource(img *sequence.Image) ([]byte, error) {
	rc, err := img.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// diskFile is a sequence.RawFile backed by a path on disk.
type diskFile struct {
	path string
	name string
	size int64
}

func (f diskFile) Name() string { return f.name }

func (f diskFile) Size() int64 { return f.size }

func (f diskFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

// Discover returns every supported image at root. root may be a single
// file. outputDir is skipped when it lies inside root. Only a failure on
// root itself is returned: a file that cannot be sniffed is kept so that it
// fails on its own during conversion, and an unreadable subdirectory is
// skipped.
func Discover(ctx context.Context, root, outputDir string, log zerolog.Logger) ([]sequence.RawFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		f, ok, err := sniffDiskFile(absRoot)
		if err != nil || !ok {
			return nil, err
		}
		return []sequence.RawFile{f}, nil
	}

	var outputAbs string
	if outputDir != "" {
		if abs, err := filepath.Abs(outputDir); err == nil && abs != filepath.Clean(absRoot) && isWithin(abs, absRoot) {
			outputAbs = abs
		}
	}

	var files []sequence.RawFile
	err = fs.WalkDir(os.DirFS(absRoot), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == "." {
				return walkErr
			}
			log.Warn().Err(walkErr).Str("path", path).Msg("skipped")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		full := filepath.Join(absRoot, filepath.FromSlash(path))
		if d.IsDir() {
			if outputAbs != "" && isWithin(full, outputAbs) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		f, ok, err := sniffDiskFile(full)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("cannot sniff")
			f = diskFile{path: full, name: d.Name()}
			if info, infoErr := d.Info(); infoErr == nil {
				f.size = info.Size()
			}
			ok = true
		}
		if ok {
			files = append(files, f)
		}
		return nil
	})
	return files, err
}

func sniffDiskFile(path string) (diskFile, bool, error) {
	fh, err := os.Open(path)
	if err != nil {
		return diskFile{}, false, err
	}
	defer fh.Close()

	kind, err := imgutil.SniffReader(fh)
	if err != nil {
		return diskFile{}, false, err
	}
	if kind == imgutil.KindUnknown {
		return diskFile{}, false, nil
	}
	st, err := fh.Stat()
	if err != nil {
		return diskFile{}, false, err
	}
	return diskFile{path: path, name: filepath.Base(path), size: st.Size()}, true, nil
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
