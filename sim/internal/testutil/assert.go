// Package testutil provides assertion and fixture helpers shared by the
// sim/ test packages.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertPointNear checks that got lies within absTol of want on both axes.
func AssertPointNear(t *testing.T, name string, want, got orb.Point, absTol float64) {
	t.Helper()
	if math.Abs(want[0]-got[0]) > absTol || math.Abs(want[1]-got[1]) > absTol {
		t.Errorf("%s: got %v, want %v (tol=%v)", name, got, want, absTol)
	}
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
