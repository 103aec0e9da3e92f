package feature

import (
	"fmt"
	"math"

	"github.com/openfluke/harris/tensor"
)

// NonMaximaSuppression2D zeroes every value of a [B, C, H, W] map that
// is not the maximum of its sliding window. The window has stride 1 and
// same-size output; padding is (size-1)/2 per axis, which means even
// sizes reach one tap further on the bottom/right. Out-of-bounds taps
// read as zero, safe for the clamped (>= 1e-6) maps this pipeline
// produces. Ties with the window maximum are all kept, so flat maximal
// plateaus survive whole; every nonzero output equals its input value.
func NonMaximaSuppression2D(scores tensor.Tensor, kernelSize [2]int) (tensor.Tensor, error) {
	if err := validate(scores); err != nil {
		return tensor.Tensor{}, err
	}
	if kernelSize[0] < 1 || kernelSize[1] < 1 {
		return tensor.Tensor{}, fmt.Errorf("kernel size must be positive, got %v", kernelSize)
	}

	batch, channels := scores.Shape[0], scores.Shape[1]
	height, width := scores.Shape[2], scores.Shape[3]
	padY := (kernelSize[0] - 1) / 2
	padX := (kernelSize[1] - 1) / 2
	out := tensor.New(scores.Shape...)

	for p := 0; p < batch*channels; p++ {
		base := p * height * width
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				m := float32(math.Inf(-1))
				for ky := 0; ky < kernelSize[0]; ky++ {
					for kx := 0; kx < kernelSize[1]; kx++ {
						iy := y - padY + ky
						ix := x - padX + kx
						var v float32 // zero padding outside the map
						if iy >= 0 && iy < height && ix >= 0 && ix < width {
							v = scores.Data[base+iy*width+ix]
						}
						if v > m {
							m = v
						}
					}
				}
				if own := scores.Data[base+y*width+x]; own == m {
					out.Data[base+y*width+x] = own
				}
			}
		}
	}
	return out, nil
}
