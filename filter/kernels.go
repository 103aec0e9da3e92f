package filter

import "math"

// Classic 3x3 Sobel derivative operators, cross-correlation convention,
// unnormalized. sobelY is the transpose of sobelX.
var sobelX = [9]float32{
	-1, 0, 1,
	-2, 0, 2,
	-1, 0, 1,
}

var sobelY = [9]float32{
	-1, -2, -1,
	0, 0, 0,
	1, 2, 1,
}

// gaussianKernel1D returns a normalized 1-D Gaussian of the given size,
// centered on (size-1)/2 so it lines up with the blur's padding rule.
func gaussianKernel1D(size int, sigma float64) []float32 {
	raw := make([]float64, size)
	mean := float64(size-1) / 2
	var sum float64
	for i := range raw {
		d := (float64(i) - mean) / sigma
		raw[i] = math.Exp(-0.5 * d * d)
		sum += raw[i]
	}
	kernel := make([]float32, size)
	for i, v := range raw {
		kernel[i] = float32(v / sum)
	}
	return kernel
}
