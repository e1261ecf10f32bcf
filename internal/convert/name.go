package convert

import (
	"framepress/internal/raster"
	"framepress/internal/sequence"
)

// SuggestedName replaces the extension of name with the one for format,
// leaving the rest of the name untouched.
func SuggestedName(name string, format raster.Format) string {
	return sequence.StripExtension(name) + format.Extension()
}
