package detect

import (
	"math"
	"sort"
)

// Peak is a local maximum of a response image.
type Peak struct {
	Row   int
	Col   int
	Value float64
}

// PeakLocalMax finds local maxima separated by at least minDistance pixels.
//
// A pixel is a candidate when it equals the maximum of its (2·minDistance+1)² window,
// exceeds both the global minimum and threshold, and lies at least minDistance pixels
// from the border. Candidates are visited by decreasing value (ties in row-major
// order); a candidate is kept unless a kept peak lies within Chebyshev distance
// < minDistance. An image in which every pixel is its own window maximum has no peaks.
func PeakLocalMax(img []float64, w, h, minDistance int, threshold float64) []Peak {
	if len(img) == 0 {
		return nil
	}
	if minDistance < 1 {
		minDistance = 1
	}

	maxf := MaximumFilter(img, w, h, minDistance)
	lowest := math.Inf(1)
	trivial := true
	for i, v := range img {
		if v < lowest {
			lowest = v
		}
		if v != maxf[i] {
			trivial = false
		}
	}
	if trivial {
		return nil
	}
	floor := math.Max(lowest, threshold)

	var candidates []Peak
	for y := minDistance; y < h-minDistance; y++ {
		for x := minDistance; x < w-minDistance; x++ {
			v := img[y*w+x]
			if v == maxf[y*w+x] && v > floor {
				candidates = append(candidates, Peak{Row: y, Col: x, Value: v})
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Value > candidates[j].Value
	})

	return ensureSpacing(candidates, minDistance)
}

type cell struct{ r, c int }

// ensureSpacing keeps peaks in order, dropping any closer than spacing to one already kept.
func ensureSpacing(peaks []Peak, spacing int) []Peak {
	if spacing <= 1 {
		return peaks
	}
	grid := make(map[cell][]Peak)
	kept := make([]Peak, 0, len(peaks))

	for _, p := range peaks {
		home := cell{p.Row / spacing, p.Col / spacing}
		free := true
	neighbours:
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				for _, q := range grid[cell{home.r + dr, home.c + dc}] {
					if abs(q.Row-p.Row) < spacing && abs(q.Col-p.Col) < spacing {
						free = false
						break neighbours
					}
				}
			}
		}
		if free {
			grid[home] = append(grid[home], p)
			kept = append(kept, p)
		}
	}
	return kept
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
