package sequence

import (
	"bytes"
	"io"
)

// RawFile is one input file as handed to detection.
type RawFile interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// Image is a parsed input file. It is created once by Detect and not
// modified afterwards.
type Image struct {
	ID       string
	Name     string
	BaseName string
	Frame    int
	HasFrame bool
	Size     int64

	file RawFile
}

func (img *Image) Open() (io.ReadCloser, error) {
	return img.file.Open()
}

type Sequence struct {
	ID                 string
	BaseName           string
	Images             []*Image
	IsSequence         bool
	MissingFrames      []int
	TotalOriginalSize  int64
	TotalConvertedSize int64
}

// Frames returns the frame numbers of the numbered members in image order.
func (s *Sequence) Frames() []int {
	frames := make([]int, 0, len(s.Images))
	for _, img := range s.Images {
		if img.HasFrame {
			frames = append(frames, img.Frame)
		}
	}
	return frames
}

// MemFile is an in-memory RawFile.
type MemFile struct {
	FileName string
	Data     []byte
}

func (f MemFile) Name() string { return f.FileName }

func (f MemFile) Size() int64 { return int64(len(f.Data)) }

func (f MemFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
