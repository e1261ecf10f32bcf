package sequence

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultGapThreshold is the largest frame step that still counts as the
// same run. A larger step starts a new part.
const DefaultGapThreshold = 5

// Builder groups files into sequences.
type Builder struct {
	GapThreshold int
}

// Detect groups files using DefaultGapThreshold.
func Detect(files []RawFile) []*Sequence {
	return Builder{GapThreshold: DefaultGapThreshold}.Detect(files)
}

// Detect parses, groups, splits and orders files. It never fails; input it
// cannot make sense of ends up as single-image entries.
func (b Builder) Detect(files []RawFile) []*Sequence {
	gap := b.GapThreshold
	if gap <= 0 {
		gap = DefaultGapThreshold
	}

	buckets := make(map[string][]*Image)
	var keys []string
	displayNames := make(map[string]string)

	for i, f := range files {
		base, frame, ok := ParseName(f.Name())
		img := &Image{
			ID:       fmt.Sprintf("img-%d", i+1),
			Name:     f.Name(),
			BaseName: base,
			Frame:    frame,
			HasFrame: ok,
			Size:     f.Size(),
			file:     f,
		}

		key := strings.ToLower(base)
		if _, seen := buckets[key]; !seen {
			keys = append(keys, key)
			displayNames[key] = base
		}
		buckets[key] = append(buckets[key], img)
	}

	var out []*Sequence
	for _, key := range keys {
		out = append(out, buildBucket(displayNames[key], buckets[key], gap)...)
	}

	orderSequences(out)
	for i, seq := range out {
		seq.ID = fmt.Sprintf("seq-%d", i+1)
	}
	return out
}

func buildBucket(base string, members []*Image, gap int) []*Sequence {
	if len(members) < 2 || !anyFramed(members) {
		singles := make([]*Sequence, 0, len(members))
		for _, img := range members {
			singles = append(singles, newSequence(img.BaseName, []*Image{img}))
		}
		return singles
	}

	sortByFrame(members)
	groups := splitByGap(members, gap)

	seqs := make([]*Sequence, 0, len(groups))
	for i, group := range groups {
		name := base
		if len(groups) > 1 {
			name = fmt.Sprintf("%s (Part %d)", base, i+1)
		}
		seqs = append(seqs, newSequence(name, group))
	}
	return seqs
}

func newSequence(name string, images []*Image) *Sequence {
	seq := &Sequence{
		BaseName:   name,
		Images:     images,
		IsSequence: len(images) >= 2 && anyFramed(images),
	}
	for _, img := range images {
		seq.TotalOriginalSize += img.Size
	}
	seq.MissingFrames = MissingFrames(seq.Frames())
	return seq
}

// sortByFrame orders numbered images by frame, then unnumbered images last.
// Name breaks ties so the result does not depend on input order.
func sortByFrame(images []*Image) {
	sort.SliceStable(images, func(i, j int) bool {
		a, b := images[i], images[j]
		if a.HasFrame != b.HasFrame {
			return a.HasFrame
		}
		if a.HasFrame && a.Frame != b.Frame {
			return a.Frame < b.Frame
		}
		return a.Name < b.Name
	})
}

// splitByGap cuts a frame-sorted slice wherever consecutive frame numbers
// are more than gap apart. Unnumbered images never start a new group.
func splitByGap(images []*Image, gap int) [][]*Image {
	groups := [][]*Image{{images[0]}}
	for i := 1; i < len(images); i++ {
		prev, curr := images[i-1], images[i]
		if prev.HasFrame && curr.HasFrame && curr.Frame-prev.Frame > gap {
			groups = append(groups, []*Image{curr})
			continue
		}
		last := len(groups) - 1
		groups[last] = append(groups[last], curr)
	}
	return groups
}

// MissingFrames lists every integer strictly between adjacent frame numbers.
func MissingFrames(frames []int) []int {
	missing := []int{}
	if len(frames) < 2 {
		return missing
	}

	sorted := append([]int(nil), frames...)
	sort.Ints(sorted)
	for i := 1; i < len(sorted); i++ {
		for f := sorted[i-1] + 1; f < sorted[i]; f++ {
			missing = append(missing, f)
		}
	}
	return missing
}

func anyFramed(images []*Image) bool {
	for _, img := range images {
		if img.HasFrame {
			return true
		}
	}
	return false
}

// orderSequences puts real sequences before singles, each class in
// collated display-name order.
func orderSequences(seqs []*Sequence) {
	col := collate.New(language.English)
	sort.SliceStable(seqs, func(i, j int) bool {
		a, b := seqs[i], seqs[j]
		if a.IsSequence != b.IsSequence {
			return a.IsSequence
		}
		if c := col.CompareString(a.BaseName, b.BaseName); c != 0 {
			return c < 0
		}
		return a.Images[0].Name < b.Images[0].Name
	})
}
