package processor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"framepress/pkg/imgutil"
)

// Metadata records which identifying categories a source file carried.
// None of them survive re-encoding.
type Metadata struct {
	GPS       bool
	Device    bool
	Timestamp bool
	Serial    bool
}

func (m Metadata) Categories() []string {
	var cats []string
	if m.GPS {
		cats = append(cats, "GPS")
	}
	if m.Device {
		cats = append(cats, "Device Model")
	}
	if m.Timestamp {
		cats = append(cats, "Timestamp")
	}
	if m.Serial {
		cats = append(cats, "Serial Number")
	}
	return cats
}

// sourceMetadata inspects data for EXIF tags (JPEG, TIFF, WebP) or PNG text
// chunks. Formats without a metadata reader report nothing.
func sourceMetadata(data []byte) (Metadata, error) {
	switch imgutil.SniffBytes(data) {
	case imgutil.KindJPEG, imgutil.KindTIFF, imgutil.KindWebP:
		return exifMetadata(bytes.NewReader(data))
	case imgutil.KindPNG:
		return pngMetadata(data)
	default:
		return Metadata{}, nil
	}
}

func exifMetadata(rs io.ReadSeeker) (Metadata, error) {
	var md Metadata

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if isNoExif(err) {
			return md, nil
		}
		return md, err
	}

	for _, tag := range tags {
		classifyKey(&md, tag.TagName)
		if strings.Contains(tag.IfdPath, "GPS") {
			md.GPS = true
		}
	}
	return md, nil
}

func isNoExif(err error) bool {
	return errors.Is(err, exif.ErrNoExif) || strings.Contains(strings.ToLower(err.Error()), "no exif")
}

var errBadPNG = errors.New("invalid PNG structure")

// pngMetadata walks PNG chunks looking for text keys, tIME and eXIf.
func pngMetadata(data []byte) (Metadata, error) {
	var md Metadata
	if len(data) < 8 {
		return md, errBadPNG
	}

	for off := 8; off+8 <= len(data); {
		length := int(binary.BigEndian.Uint32(data[off:]))
		name := string(data[off+4 : off+8])
		body := off + 8
		if length < 0 || body+length+4 > len(data) {
			return md, errBadPNG
		}
		chunk := data[body : body+length]

		switch name {
		case "tEXt", "zTXt", "iTXt":
			if i := bytes.IndexByte(chunk, 0); i > 0 {
				classifyKey(&md, string(chunk[:i]))
			}
		case "tIME":
			md.Timestamp = true
		case "eXIf":
			sub, err := exifMetadata(bytes.NewReader(chunk))
			if err == nil {
				md = merge(md, sub)
			}
		case "IEND":
			return md, nil
		}
		off = body + length + 4
	}
	// Ran out of data before IEND.
	return md, errBadPNG
}

func classifyKey(md *Metadata, key string) {
	lower := strings.ToLower(key)
	switch {
	case strings.HasPrefix(key, "GPS"), strings.Contains(lower, "latitude"), strings.Contains(lower, "longitude"):
		md.GPS = true
	case lower == "model", lower == "make", lower == "cameramodelname":
		md.Device = true
	case strings.HasPrefix(lower, "datetime"), lower == "creation time":
		md.Timestamp = true
	case strings.Contains(lower, "serial"):
		md.Serial = true
	}
}

func merge(a, b Metadata) Metadata {
	return Metadata{
		GPS:       a.GPS || b.GPS,
		Device:    a.Device || b.Device,
		Timestamp: a.Timestamp || b.Timestamp,
		Serial:    a.Serial || b.Serial,
	}
}
