package imgutil

import (
	"errors"
	"io"
	"os"
)

// Kind identifies a supported source image type.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindTIFF
	KindGIF
	KindWebP
	KindBMP
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindTIFF:
		return "tiff"
	case KindGIF:
		return "gif"
	case KindWebP:
		return "webp"
	case KindBMP:
		return "bmp"
	default:
		return "unknown"
	}
}

// HeaderSize is the number of leading bytes DetectHeader looks at.
const HeaderSize = 12

var (
	pngSig    = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig   = []byte{0xff, 0xd8, 0xff}
	tiffSigLE = []byte{0x49, 0x49, 0x2a, 0x00}
	tiffSigBE = []byte{0x4d, 0x4d, 0x00, 0x2a}
	gif87Sig  = []byte("GIF87a")
	gif89Sig  = []byte("GIF89a")
	riffSig   = []byte("RIFF")
	webpSig   = []byte("WEBP")
	bmpSig    = []byte("BM")
)

var errShortHeader = errors.New("header too short")

// DetectHeader inspects the leading bytes of a file for known signatures.
// WebP needs the full HeaderSize bytes; the other kinds need at least 8.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < 8 {
		return KindUnknown, errShortHeader
	}

	switch {
	case hasPrefix(header, jpegSig):
		return KindJPEG, nil
	case hasPrefix(header, pngSig):
		return KindPNG, nil
	case hasPrefix(header, tiffSigLE), hasPrefix(header, tiffSigBE):
		return KindTIFF, nil
	case hasPrefix(header, gif87Sig), hasPrefix(header, gif89Sig):
		return KindGIF, nil
	case len(header) >= 12 && hasPrefix(header, riffSig) && hasPrefix(header[8:], webpSig):
		return KindWebP, nil
	case hasPrefix(header, bmpSig):
		return KindBMP, nil
	}

	return KindUnknown, nil
}

// SniffFile reads the header of the file at path to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads up to HeaderSize bytes from r and determines its type.
// Files too short to carry any signature report KindUnknown without error.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return KindUnknown, err
	}

	kind, err := DetectHeader(header[:n])
	if errors.Is(err, errShortHeader) {
		return KindUnknown, nil
	}
	return kind, err
}

// SniffBytes is SniffReader for data already in memory.
func SniffBytes(data []byte) Kind {
	if len(data) > HeaderSize {
		data = data[:HeaderSize]
	}
	kind, _ := DetectHeader(data)
	return kind
}

func hasPrefix(buf, prefix []byte) bool {
	if len(buf) < len(prefix) {
		return false
	}
	for i := range prefix {
		if buf[i] != prefix[i] {
			return false
		}
	}
	return true
}
