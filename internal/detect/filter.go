package detect

import "math"

// GaussianKernel returns normalized 1D weights for sigma, truncated at 4 sigma.
func GaussianKernel(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	weights := make([]float64, 2*radius+1)
	var sum float64
	for i := range weights {
		x := float64(i - radius)
		weights[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// Gaussian smooths a row-major image with a separable kernel. Samples outside the
// image repeat the nearest edge pixel.
func Gaussian(src []float64, w, h int, sigma float64) []float64 {
	if sigma <= 0 {
		out := make([]float64, len(src))
		copy(out, src)
		return out
	}
	k := GaussianKernel(sigma)
	r := len(k) / 2

	// Rows first, then columns.
	tmp := make([]float64, len(src))
	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var acc float64
			for i, wt := range k {
				acc += wt * row[clamp(x+i-r, w)]
			}
			tmp[y*w+x] = acc
		}
	}

	out := make([]float64, len(src))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var acc float64
			for i, wt := range k {
				acc += wt * tmp[clamp(y+i-r, h)*w+x]
			}
			out[y*w+x] = acc
		}
	}
	return out
}

// Laplace applies the 3x3 operator with +4 at the centre and -1 on the four
// neighbours, so bright blobs give a positive response. Borders reflect, which
// for a radius-1 kernel repeats the edge pixel.
func Laplace(src []float64, w, h int) []float64 {
	out := make([]float64, len(src))
	for y := 0; y < h; y++ {
		up := clamp(y-1, h) * w
		down := clamp(y+1, h) * w
		for x := 0; x < w; x++ {
			left := clamp(x-1, w)
			right := clamp(x+1, w)
			c := src[y*w+x]
			out[y*w+x] = 4*c - src[up+x] - src[down+x] - src[y*w+left] - src[y*w+right]
		}
	}
	return out
}

// MaximumFilter returns, for each pixel, the maximum over the square window of
// half-width radius. Out-of-bounds samples repeat the nearest edge pixel.
func MaximumFilter(src []float64, w, h, radius int) []float64 {
	tmp := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := math.Inf(-1)
			for i := x - radius; i <= x+radius; i++ {
				if v := src[y*w+clamp(i, w)]; v > m {
					m = v
				}
			}
			tmp[y*w+x] = m
		}
	}
	out := make([]float64, len(src))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			m := math.Inf(-1)
			for j := y - radius; j <= y+radius; j++ {
				if v := tmp[clamp(j, h)*w+x]; v > m {
					m = v
				}
			}
			out[y*w+x] = m
		}
	}
	return out
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
