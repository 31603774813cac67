package render

import (
	"math"
	"testing"

	"github.com/Maxar-Corp/wff-tools/pkg/math3d"
)

func TestSetOrientationAppliesVerbatim(t *testing.T) {
	c := NewCamera()

	// Deliberately non-normalized vectors: the camera must store exactly
	// what it is given so pose snapshots survive unchanged.
	dir := math3d.V3(0.70710678118654757, 0, -0.70710678118654746)
	up := math3d.V3(0.1, 0.9, 0.2)

	c.SetOrientation(dir, up)

	if c.Direction() != dir {
		t.Errorf("Direction() = %v, want %v", c.Direction(), dir)
	}
	if c.Up() != up {
		t.Errorf("Up() = %v, want %v", c.Up(), up)
	}
}

func TestLookAtFacesTarget(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math3d.V3(0, 0, 10))
	c.LookAt(math3d.Zero3())

	want := math3d.V3(0, 0, -1)
	got := c.Direction()
	if got.Sub(want).Len() > 1e-9 {
		t.Errorf("Direction() = %v, want %v", got, want)
	}
	if math.Abs(got.Dot(c.Up())) > 1e-9 {
		t.Error("up vector should be orthogonal to the view direction")
	}
}

func TestLookAtStraightDownKeepsValidBasis(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math3d.V3(0, 10, 0))
	c.LookAt(math3d.Zero3())

	if c.Up().Len() < 0.9 {
		t.Errorf("degenerate vertical look produced up %v", c.Up())
	}
	if math.Abs(c.Direction().Dot(c.Up())) > 1e-9 {
		t.Error("basis not orthogonal after vertical look")
	}
}

func TestRotateRefusesPoleFlip(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math3d.Zero3())
	c.LookAt(math3d.V3(0, 0, -1))

	// Pitch up far past vertical; direction must never flip over
	for range 100 {
		c.Rotate(0.1, 0)
	}

	if c.Direction().Dot(math3d.Up()) > 0.9999 {
		t.Error("camera pitched through the pole")
	}
	if math.Abs(c.Direction().Len()-1) > 1e-6 {
		t.Errorf("direction drifted off unit length: %v", c.Direction().Len())
	}
}

func TestMoveForwardFollowsDirection(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math3d.Zero3())
	c.SetOrientation(math3d.V3(1, 0, 0), math3d.Up())

	c.MoveForward(2.5)

	want := math3d.V3(2.5, 0, 0)
	if c.Position.Sub(want).Len() > 1e-9 {
		t.Errorf("Position = %v, want %v", c.Position, want)
	}
}

func TestWorldToScreenCenter(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math3d.V3(0, 0, 10))
	c.LookAt(math3d.Zero3())
	c.SetAspectRatio(1)

	x, y, _, visible := c.WorldToScreen(math3d.Zero3(), 100, 100)
	if !visible {
		t.Fatal("origin should be visible from (0,0,10)")
	}
	if math.Abs(x-50) > 1 || math.Abs(y-50) > 1 {
		t.Errorf("screen pos = (%v, %v), want center", x, y)
	}

	_, _, _, visible = c.WorldToScreen(math3d.V3(0, 0, 20), 100, 100)
	if visible {
		t.Error("point behind camera should not be visible")
	}
}

func TestOrbitKeepsDistance(t *testing.T) {
	c := NewCamera()
	center := math3d.Zero3()
	c.SetPosition(math3d.V3(0, 0, 5))
	c.LookAt(center)

	c.Orbit(center, 0.3, 0.7)

	if d := c.Position.Distance(center); math.Abs(d-5) > 1e-9 {
		t.Errorf("orbit changed distance: %v", d)
	}
	// Still looking at the center
	want := center.Sub(c.Position).Normalize()
	if c.Direction().Sub(want).Len() > 1e-9 {
		t.Error("orbit should keep the center in view")
	}
}
