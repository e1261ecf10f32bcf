package sequence

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Two or more trailing digits, separator optional: shot_0012, shot0012.
	reLongFrame = regexp.MustCompile(`^(.+?)[-_]?(\d{2,})$`)
	// Any trailing digits after a mandatory separator: shot_1, shot-7.
	reSeparatedFrame = regexp.MustCompile(`^(.+?)[-_](\d+)$`)
)

// ParseName splits a filename into its base name and frame number. ok is
// false when the name carries no trailing frame number, in which case base
// is the filename without its extension.
func ParseName(filename string) (base string, frame int, ok bool) {
	stem := StripExtension(filename)

	for _, re := range []*regexp.Regexp{reLongFrame, reSeparatedFrame} {
		m := re.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[2], 10, strconv.IntSize)
		if err != nil {
			// Digit run too long for int.
			continue
		}
		return m[1], int(n), true
	}

	return stem, 0, false
}

// StripExtension removes everything from the final dot onwards.
func StripExtension(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		return filename[:i]
	}
	return filename
}
