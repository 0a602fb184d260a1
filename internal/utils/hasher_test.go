package utils

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestHashBytes(t *testing.T) {
	a := HashBytes("hunter2")
	b := HashBytes("hunter2")

	if !bytes.Equal(a, b) {
		t.Error("same input must hash to the same digest")
	}
	if bytes.Equal(a, HashBytes("other")) {
		t.Error("different inputs must hash to different digests")
	}
	if len(a) != sha256.Size {
		t.Errorf("digest length = %d, want %d", len(a), sha256.Size)
	}
}
