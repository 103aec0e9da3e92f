package tensor

import "testing"

// TestNew verifies allocation, shape, and strides
func TestNew(t *testing.T) {
	tn := New(2, 3, 4, 5)
	if tn.Size() != 120 {
		t.Errorf("Expected size 120, got %d", tn.Size())
	}
	if len(tn.Data) != 120 {
		t.Errorf("Expected data length 120, got %d", len(tn.Data))
	}
	if tn.Rank() != 4 {
		t.Errorf("Expected rank 4, got %d", tn.Rank())
	}
	want := []int{60, 20, 5, 1}
	for i, s := range want {
		if tn.Strides[i] != s {
			t.Errorf("Stride %d: expected %d, got %d", i, s, tn.Strides[i])
		}
	}
}

// TestFromSlice verifies wrapping and the length check
func TestFromSlice(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	tn, err := FromSlice(data, 1, 1, 2, 3)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if tn.Data[5] != 6 {
		t.Errorf("Data not wrapped correctly")
	}

	if _, err := FromSlice(data, 1, 1, 2, 2); err == nil {
		t.Error("Expected error for mismatched data length")
	}
}

// TestClone verifies deep copying
func TestClone(t *testing.T) {
	original, _ := FromSlice([]float32{1, 2, 3, 4}, 1, 1, 2, 2)
	clone := original.Clone()

	original.Data[0] = 100
	if clone.Data[0] != 1 {
		t.Errorf("Clone was modified when original changed")
	}
}

// TestAtSet verifies indexed access
func TestAtSet(t *testing.T) {
	tn := New(2, 1, 3, 3)
	tn.Set(7.5, 1, 0, 2, 1)
	if got := tn.At(1, 0, 2, 1); got != 7.5 {
		t.Errorf("Expected 7.5, got %f", got)
	}
	if tn.Data[1*9+2*3+1] != 7.5 {
		t.Errorf("Set wrote to the wrong flat offset")
	}
}
