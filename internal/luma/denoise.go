package luma

import "math"

const denoiseSpatialSigma = 1.2

// Denoise runs an edge-preserving bilateral filter over m. strength is
// 0-100; zero or less returns m itself. Pixels within radius of the border
// are copied through unfiltered.
func Denoise(m *Map, strength float64) *Map {
	if strength <= 0 {
		return m
	}

	rangeSigma := 5 + (strength/100)*25
	radius := int(math.Ceil(strength / 25))

	twoSpatial := 2 * denoiseSpatialSigma * denoiseSpatialSigma
	twoRange := 2 * rangeSigma * rangeSigma

	size := 2*radius + 1
	spatial := make([]float64, size*size)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*size+dx+radius] = math.Exp(-d2 / twoSpatial)
		}
	}

	out := m.clone()
	w := m.Width
	for y := radius; y < m.Height-radius; y++ {
		for x := radius; x < w-radius; x++ {
			center := m.Values[y*w+x]
			var sum, total float64
			for dy := -radius; dy <= radius; dy++ {
				row := (y + dy) * w
				for dx := -radius; dx <= radius; dx++ {
					v := m.Values[row+x+dx]
					diff := v - center
					weight := spatial[(dy+radius)*size+dx+radius] * math.Exp(-(diff*diff)/twoRange)
					sum += v * weight
					total += weight
				}
			}
			out.Values[y*w+x] = sum / total
		}
	}
	return out
}
