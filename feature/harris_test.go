package feature

import (
	"errors"
	"math"
	"testing"

	"github.com/openfluke/harris/tensor"
)

// blockImage builds the 7x7 scenario: a uniform 5x5 block of ones on a
// zero background.
func blockImage() tensor.Tensor {
	img := tensor.New(1, 1, 7, 7)
	for y := 1; y < 6; y++ {
		for x := 1; x < 6; x++ {
			img.Set(1, 0, 0, y, x)
		}
	}
	return img
}

// TestCornerHarrisBlock verifies the worked example: the four corners of
// the block boundary are the only normalized maxima
func TestCornerHarrisBlock(t *testing.T) {
	out, err := CornerHarris(blockImage(), 0.04)
	if err != nil {
		t.Fatalf("CornerHarris failed: %v", err)
	}
	if out.Shape[2] != 7 || out.Shape[3] != 7 {
		t.Fatalf("Output shape changed: %v", out.Shape)
	}

	peaks := [][2]int{{1, 1}, {1, 5}, {5, 1}, {5, 5}}
	for _, p := range peaks {
		if got := out.At(0, 0, p[0], p[1]); math.Abs(float64(got)-1) > 1e-4 {
			t.Errorf("Corner (%d,%d): expected 1.0, got %f", p[0], p[1], got)
		}
	}
	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			if (y == 1 || y == 5) && (x == 1 || x == 5) {
				continue
			}
			if got := out.At(0, 0, y, x); got > 1e-3 {
				t.Errorf("Non-corner (%d,%d): expected ~0, got %f", y, x, got)
			}
		}
	}
}

// TestCornerHarrisSymmetry verifies the response inherits the square's
// symmetry group from a symmetric input
func TestCornerHarrisSymmetry(t *testing.T) {
	out, err := CornerHarris(blockImage(), 0.04)
	if err != nil {
		t.Fatalf("CornerHarris failed: %v", err)
	}
	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			v := float64(out.At(0, 0, y, x))
			flipped := []float64{
				float64(out.At(0, 0, 6-y, x)),
				float64(out.At(0, 0, y, 6-x)),
				float64(out.At(0, 0, x, y)),
			}
			for i, f := range flipped {
				if math.Abs(v-f) > 1e-4 {
					t.Errorf("Symmetry %d broken at (%d,%d): %f vs %f", i, y, x, v, f)
				}
			}
		}
	}
}

// TestCornerHarrisFlat verifies the all-zero scenario: uniform floor
// scores, all pixels local maxima, uniform 1.0 output
func TestCornerHarrisFlat(t *testing.T) {
	img := tensor.New(2, 3, 4, 5)

	scores, err := HarrisScore(img, 0.04)
	if err != nil {
		t.Fatalf("HarrisScore failed: %v", err)
	}
	for i, v := range scores.Data {
		if v != 1e-6 {
			t.Fatalf("Score %d: expected the 1e-6 floor, got %g", i, v)
		}
	}

	out, err := CornerHarris(img, 0.04)
	if err != nil {
		t.Fatalf("CornerHarris failed: %v", err)
	}
	for i, v := range out.Data {
		if v != 1 {
			t.Fatalf("Output %d: expected uniform 1.0, got %f", i, v)
		}
	}
}

// TestHarrisScoreFloor verifies clamping and shape preservation
func TestHarrisScoreFloor(t *testing.T) {
	img := tensor.New(1, 2, 6, 6)
	seed := uint32(7)
	for i := range img.Data {
		seed = seed*1664525 + 1013904223
		img.Data[i] = float32(seed%256)/255 - 0.5
	}

	scores, err := HarrisScore(img, 0.05)
	if err != nil {
		t.Fatalf("HarrisScore failed: %v", err)
	}
	for i, d := range img.Shape {
		if scores.Shape[i] != d {
			t.Fatalf("Score shape mismatch: %v, want %v", scores.Shape, img.Shape)
		}
	}
	for i, v := range scores.Data {
		if v < 1e-6 {
			t.Errorf("Score %d below floor: %g", i, v)
		}
	}
}

// TestCornerHarrisRange verifies every slice normalizes independently to
// a 1.0 maximum with all values in [0, 1]
func TestCornerHarrisRange(t *testing.T) {
	img := tensor.New(2, 2, 8, 8)
	seed := uint32(42)
	for i := range img.Data {
		seed = seed*1664525 + 1013904223
		img.Data[i] = float32(seed % 256)
	}

	out, err := CornerHarris(img, 0.04)
	if err != nil {
		t.Fatalf("CornerHarris failed: %v", err)
	}
	plane := 64
	for p := 0; p < 4; p++ {
		var m float32
		for i := 0; i < plane; i++ {
			v := out.Data[p*plane+i]
			if v < 0 || v > 1 {
				t.Fatalf("Slice %d value out of range: %f", p, v)
			}
			if v > m {
				m = v
			}
		}
		if m != 1 {
			t.Errorf("Slice %d: expected a 1.0 maximum, got %f", p, m)
		}
	}
}

// TestValidation verifies the fail-fast error taxonomy
func TestValidation(t *testing.T) {
	if _, err := CornerHarris(tensor.New(1, 5, 5), 0.04); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("Expected ErrInvalidShape for 3D input, got %v", err)
	}
	if _, err := CornerHarris(tensor.Tensor{}, 0.04); !errors.Is(err, ErrInvalidType) {
		t.Errorf("Expected ErrInvalidType for empty tensor, got %v", err)
	}

	// Data inconsistent with the declared shape is a type error too.
	broken := tensor.Tensor{Data: make([]float32, 5), Shape: []int{1, 1, 2, 2}}
	if _, err := HarrisScore(broken, 0.04); !errors.Is(err, ErrInvalidType) {
		t.Errorf("Expected ErrInvalidType for inconsistent tensor, got %v", err)
	}
}

// TestDetectorReuse verifies a detector carries no state between calls
func TestDetectorReuse(t *testing.T) {
	d := NewDetector(0.04)
	img := blockImage()

	first, err := d.Forward(img)
	if err != nil {
		t.Fatalf("First forward failed: %v", err)
	}
	second, err := d.Forward(img)
	if err != nil {
		t.Fatalf("Second forward failed: %v", err)
	}
	for i := range first.Data {
		if first.Data[i] != second.Data[i] {
			t.Fatalf("Repeated calls should be deterministic, index %d differs", i)
		}
	}
}
