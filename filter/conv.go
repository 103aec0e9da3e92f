// Package filter provides the fixed spatial primitives the feature
// package builds on: the 3x3 Sobel gradient and a separable Gaussian
// blur. Both produce same-size output with zero padding; taps that fall
// outside the image read as zero. That border convention is part of the
// contract, since it shapes edge-pixel responses downstream.
//
// Inputs are [batch, channel, height, width] tensors and every channel
// is filtered independently. Rank validation happens at the feature
// entry points, not here.
package filter

import "github.com/openfluke/harris/tensor"

// SpatialGradient computes the first-order x and y derivatives of an
// image batch using the 3x3 Sobel operator.
func SpatialGradient(img tensor.Tensor) (dx, dy tensor.Tensor) {
	return conv3x3(img, &sobelX), conv3x3(img, &sobelY)
}

// GaussianBlur smooths each channel with a separable Gaussian kernel of
// the given size and sigma, both in (height, width) order. Padding is
// (size-1)/2 taps per axis.
func GaussianBlur(img tensor.Tensor, kernelSize [2]int, sigma [2]float64) tensor.Tensor {
	ky := gaussianKernel1D(kernelSize[0], sigma[0])
	kx := gaussianKernel1D(kernelSize[1], sigma[1])
	return passVertical(passHorizontal(img, kx), ky)
}

// conv3x3 applies one 3x3 kernel per channel, stride 1, zero padding.
func conv3x3(img tensor.Tensor, kernel *[9]float32) tensor.Tensor {
	batch, channels := img.Shape[0], img.Shape[1]
	height, width := img.Shape[2], img.Shape[3]
	out := tensor.New(img.Shape...)

	for p := 0; p < batch*channels; p++ {
		base := p * height * width
		for oh := 0; oh < height; oh++ {
			for ow := 0; ow < width; ow++ {
				var sum float32
				for kh := 0; kh < 3; kh++ {
					for kw := 0; kw < 3; kw++ {
						ih := oh + kh - 1
						iw := ow + kw - 1
						if ih >= 0 && ih < height && iw >= 0 && iw < width {
							sum += img.Data[base+ih*width+iw] * kernel[kh*3+kw]
						}
					}
				}
				out.Data[base+oh*width+ow] = sum
			}
		}
	}
	return out
}

func passHorizontal(img tensor.Tensor, kernel []float32) tensor.Tensor {
	batch, channels := img.Shape[0], img.Shape[1]
	height, width := img.Shape[2], img.Shape[3]
	pad := (len(kernel) - 1) / 2
	out := tensor.New(img.Shape...)

	for p := 0; p < batch*channels; p++ {
		base := p * height * width
		for oh := 0; oh < height; oh++ {
			row := base + oh*width
			for ow := 0; ow < width; ow++ {
				var sum float32
				for k, w := range kernel {
					iw := ow + k - pad
					if iw >= 0 && iw < width {
						sum += img.Data[row+iw] * w
					}
				}
				out.Data[row+ow] = sum
			}
		}
	}
	return out
}

func passVertical(img tensor.Tensor, kernel []float32) tensor.Tensor {
	batch, channels := img.Shape[0], img.Shape[1]
	height, width := img.Shape[2], img.Shape[3]
	pad := (len(kernel) - 1) / 2
	out := tensor.New(img.Shape...)

	for p := 0; p < batch*channels; p++ {
		base := p * height * width
		for oh := 0; oh < height; oh++ {
			for ow := 0; ow < width; ow++ {
				var sum float32
				for k, w := range kernel {
					ih := oh + k - pad
					if ih >= 0 && ih < height {
						sum += img.Data[base+ih*width+ow] * w
					}
				}
				out.Data[base+oh*width+ow] = sum
			}
		}
	}
	return out
}
