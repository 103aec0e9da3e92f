// Package feature computes Harris corner response maps for image batches
// and extracts locally-maximal, normalized scores usable for keypoint
// detection. The pipeline is purely functional: every call allocates its
// own scratch and nothing is shared between invocations.
package feature

import (
	"fmt"

	"github.com/openfluke/harris/filter"
	"github.com/openfluke/harris/gpu"
	"github.com/openfluke/harris/tensor"
)

// scoreFloor keeps responses strictly positive, so zero padding in the
// suppression windows and the per-slice normalization never meet a
// non-positive maximum.
const scoreFloor = 1e-6

// validate rejects malformed input before any work happens.
func validate(t tensor.Tensor) error {
	if len(t.Data) == 0 || len(t.Data) != t.Size() {
		return fmt.Errorf("%w: data length %d for shape %v", ErrInvalidType, len(t.Data), t.Shape)
	}
	if t.Rank() != 4 {
		return fmt.Errorf("%w: got %v", ErrInvalidShape, t.Shape)
	}
	return nil
}

// HarrisScore computes the clamped Harris response of a [B, C, H, W]
// batch: Sobel gradients, Gaussian-smoothed structure tensor, then
// det - k*trace^2 per pixel, floored at 1e-6. Output shape equals input
// shape and every value is >= 1e-6. k is conventionally in [0.04, 0.06]
// but any finite value is accepted; non-finite input propagates through
// untrapped.
func HarrisScore(img tensor.Tensor, k float32) (tensor.Tensor, error) {
	if err := validate(img); err != nil {
		return tensor.Tensor{}, err
	}
	return harrisScoreCPU(img, k), nil
}

func harrisScoreCPU(img tensor.Tensor, k float32) tensor.Tensor {
	dx, dy := filter.SpatialGradient(img)

	dx2 := tensor.New(img.Shape...)
	dy2 := tensor.New(img.Shape...)
	dxy := tensor.New(img.Shape...)
	for i, vx := range dx.Data {
		vy := dy.Data[i]
		dx2.Data[i] = vx * vx
		dy2.Data[i] = vy * vy
		dxy.Data[i] = vx * vy
	}

	size := [2]int{3, 3}
	sigma := [2]float64{1.0, 1.0}
	sxx := filter.GaussianBlur(dx2, size, sigma)
	syy := filter.GaussianBlur(dy2, size, sigma)
	sxy := filter.GaussianBlur(dxy, size, sigma)

	scores := tensor.New(img.Shape...)
	for i := range scores.Data {
		det := sxx.Data[i]*syy.Data[i] - sxy.Data[i]*sxy.Data[i]
		trace := sxx.Data[i] + syy.Data[i]
		s := det - k*trace*trace
		if s < scoreFloor {
			s = scoreFloor
		}
		scores.Data[i] = s
	}
	return scores
}

// Detector is the construct-and-apply form of the pipeline. The only
// persistent state is the scalar k and the fixed suppression window; a
// detector is safe for concurrent use.
type Detector struct {
	K float32

	// UseGPU routes the response computation through the WebGPU backend.
	// Suppression and normalization always run on the CPU, and any GPU
	// error falls back to the CPU path silently.
	UseGPU bool
}

// NewDetector returns a detector for the given k. The suppression window
// is fixed at 3x3.
func NewDetector(k float32) *Detector {
	return &Detector{K: k}
}

// Forward computes the normalized corner response of a [B, C, H, W]
// batch: Harris scoring, non-maxima suppression, then division of each
// [batch, channel] plane by its own spatial maximum. Output values lie
// in (0, 1] or are exactly 0, with a 1.0 at every tied global maximum
// of each plane.
func (d *Detector) Forward(img tensor.Tensor) (tensor.Tensor, error) {
	if err := validate(img); err != nil {
		return tensor.Tensor{}, err
	}

	var scores tensor.Tensor
	if d.UseGPU {
		data, err := gpu.HarrisResponse(img.Data, img.Shape[0], img.Shape[1], img.Shape[2], img.Shape[3], d.K)
		if err == nil {
			scores, _ = tensor.FromSlice(data, img.Shape...)
		}
	}
	if scores.Data == nil {
		scores = harrisScoreCPU(img, d.K)
	}

	suppressed, err := NonMaximaSuppression2D(scores, [2]int{3, 3})
	if err != nil {
		return tensor.Tensor{}, err
	}
	return normalizePerSlice(suppressed), nil
}

// CornerHarris computes the full normalized corner response in one call.
func CornerHarris(img tensor.Tensor, k float32) (tensor.Tensor, error) {
	return NewDetector(k).Forward(img)
}

// normalizePerSlice divides each [batch, channel] plane by its own
// spatial maximum. A zero maximum yields non-finite values, which are
// propagated rather than trapped; the clamped scoring upstream makes
// that unreachable in the normal pipeline.
func normalizePerSlice(t tensor.Tensor) tensor.Tensor {
	batch, channels := t.Shape[0], t.Shape[1]
	plane := t.Shape[2] * t.Shape[3]
	out := tensor.New(t.Shape...)
	for p := 0; p < batch*channels; p++ {
		base := p * plane
		m := t.Data[base]
		for i := 1; i < plane; i++ {
			if v := t.Data[base+i]; v > m {
				m = v
			}
		}
		for i := 0; i < plane; i++ {
			out.Data[base+i] = t.Data[base+i] / m
		}
	}
	return out
}
