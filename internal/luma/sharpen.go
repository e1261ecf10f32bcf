package luma

import "math"

// Sharpen applies a thresholded unsharp mask to m. amount is 0-100; zero or
// less returns m itself. Differences at or below the threshold are left
// alone so flat, noisy areas are not amplified.
func Sharpen(m *Map, amount float64) *Map {
	if amount <= 0 {
		return m
	}

	blurred := boxBlur3(m)
	strength := (amount / 100) * 0.7
	threshold := 3 + (60-amount)*0.15

	out := m.clone()
	w := m.Width
	for y := 1; y < m.Height-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			orig := m.Values[i]
			diff := orig - blurred.Values[i]
			abs := math.Abs(diff)
			if abs <= threshold {
				continue
			}
			edge := math.Min(1, (abs-threshold)/15)
			out.Values[i] = clamp(orig+diff*strength*edge, 0, 255)
		}
	}
	return out
}

// boxBlur3 averages each interior pixel with its eight neighbours. Border
// pixels keep their original value.
func boxBlur3(m *Map) *Map {
	out := m.clone()
	w := m.Width
	for y := 1; y < m.Height-1; y++ {
		for x := 1; x < w-1; x++ {
			var sum float64
			for dy := -1; dy <= 1; dy++ {
				row := (y + dy) * w
				for dx := -1; dx <= 1; dx++ {
					sum += m.Values[row+x+dx]
				}
			}
			out.Values[y*w+x] = sum / 9
		}
	}
	return out
}
