//go:build gocv

package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// Backend names the filter implementation compiled into this binary.
const Backend = "gocv"

// blobResponse runs the same filters through OpenCV (build with -tags gocv).
// BorderReplicate matches nearest-edge smoothing; BorderReflect matches the
// Laplacian border handling of the native path.
func blobResponse(pix []float64, w, h int, sigma float64) []float64 {
	src := gocv.NewMatWithSize(h, w, gocv.MatTypeCV64F)
	defer src.Close()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.SetDoubleAt(y, x, pix[y*w+x])
		}
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	if sigma > 0 {
		k := 2*int(4*sigma+0.5) + 1
		gocv.GaussianBlur(src, &blurred, image.Pt(k, k), sigma, sigma, gocv.BorderReplicate)
	} else {
		src.CopyTo(&blurred)
	}

	// ksize 1 is the 4-neighbour kernel; scale -1 flips it so blobs are positive.
	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(blurred, &lap, gocv.MatTypeCV64F, 1, -1, 0, gocv.BorderReflect)

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = lap.GetDoubleAt(y, x)
		}
	}
	return out
}
