//go:build !gocv

package detect

// Backend names the filter implementation compiled into this binary.
const Backend = "native"

func blobResponse(pix []float64, w, h int, sigma float64) []float64 {
	return Laplace(Gaussian(pix, w, h, sigma), w, h)
}
