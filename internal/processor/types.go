package processor

import (
	"github.com/rs/zerolog"

	"framepress/internal/convert"
	"framepress/internal/fidelity"
	"framepress/internal/raster"
)

type Mode int

const (
	ModeDetect Mode = iota
	ModeConvert
)

type Options struct {
	Mode         Mode
	OutputDir    string
	Settings     convert.Settings
	Format       raster.Format
	Filter       raster.Filter
	Workers      int // 0 means runtime.NumCPU()
	GapThreshold int
	Zip          bool
	Fidelity     bool
	Logger       zerolog.Logger

	// Rasterizer overrides the codec built from Filter.
	Rasterizer convert.Rasterizer
}

type Job struct {
	Seq     int
	Index   int
	OutPath string
	RelPath string
}

// ImageResult is the per-image outcome. It is only written by the
// collector goroutine.
type ImageResult struct {
	ID            string
	Name          string
	BaseName      string
	Frame         int
	HasFrame      bool
	OriginalSize  int64
	ConvertedSize int64
	OutputName    string
	OutputPath    string
	Status        Status
	Error         string
	Width         int
	Height        int
	Metadata      []string
	Fidelity      *fidelity.Report

	// Canceled marks an error caused by stopping the batch, not by the image.
	Canceled bool
}

type SequenceReport struct {
	ID                 string
	BaseName           string
	IsSequence         bool
	MissingFrames      []int
	Images             []ImageResult
	TotalOriginalSize  int64
	TotalConvertedSize int64
}

type Summary struct {
	Sequences        int
	Images           int
	Converted        int
	Errors           int
	Canceled         int // stopped in flight; not counted in Errors
	OriginalBytes    int64
	ConvertedBytes   int64
	MetadataStripped int
	MissingFrames    int
	ZipPath          string
}

// BytesSaved is negative when the output grew.
func (s Summary) BytesSaved() int64 {
	return s.OriginalBytes - s.ConvertedBytes
}

type ProgressUpdate struct {
	TotalDelta          int
	ConvertedDelta      int
	ErrorDelta          int
	OriginalBytesDelta  int64
	ConvertedBytesDelta int64
}
