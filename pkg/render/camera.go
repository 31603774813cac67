package render

import (
	"math"

	"github.com/Maxar-Corp/wff-tools/pkg/math3d"
)

// Camera represents a free-look 3D camera.
//
// Orientation is stored as explicit direction and up vectors rather than
// Euler angles so that a pose snapshot restores exactly the vectors it was
// captured from.
type Camera struct {
	// Position in world space
	Position math3d.Vec3

	// Orientation basis (unit vectors)
	direction math3d.Vec3 // View direction
	up        math3d.Vec3 // Up vector, orthogonal to direction

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane

	// Cached matrices (computed on demand)
	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
}

// NewCamera creates a new camera with default settings.
func NewCamera() *Camera {
	return &Camera{
		Position:    math3d.V3(0, 0, 5),
		direction:   math3d.Forward(),
		up:          math3d.Up(),
		FOV:         math.Pi / 3, // 60 degrees
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         1000,
		viewDirty:   true,
		projDirty:   true,
	}
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// SetFOV sets the field of view (in radians).
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.projDirty = true
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.projDirty = true
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.projDirty = true
}

// Direction returns the view direction vector.
func (c *Camera) Direction() math3d.Vec3 {
	return c.direction
}

// Up returns the up vector.
func (c *Camera) Up() math3d.Vec3 {
	return c.up
}

// Right returns the right direction vector.
func (c *Camera) Right() math3d.Vec3 {
	return c.direction.Cross(c.up)
}

// SetOrientation sets the view direction and up vectors verbatim.
// Both vectors are applied together; callers restoring a captured pose
// rely on the vectors coming back unmodified.
func (c *Camera) SetOrientation(direction, up math3d.Vec3) {
	c.direction = direction
	c.up = up
	c.viewDirty = true
}

// LookAt orients the camera towards a target point, keeping world up.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position).Normalize()
	right := dir.Cross(math3d.Up())
	if right.LenSq() < 1e-12 {
		// Looking straight up or down; pick an arbitrary horizontal right.
		right = math3d.Right()
	}
	right = right.Normalize()

	c.direction = dir
	c.up = right.Cross(dir)
	c.viewDirty = true
}

// MoveForward moves the camera along the view direction.
func (c *Camera) MoveForward(distance float64) {
	c.Position = c.Position.Add(c.direction.Scale(distance))
	c.viewDirty = true
}

// MoveRight moves the camera along the right vector.
func (c *Camera) MoveRight(distance float64) {
	c.Position = c.Position.Add(c.Right().Scale(distance))
	c.viewDirty = true
}

// MoveUp moves the camera along the world up axis.
func (c *Camera) MoveUp(distance float64) {
	c.Position = c.Position.Add(math3d.Up().Scale(distance))
	c.viewDirty = true
}

// Rotate rotates the orientation basis by the given deltas (radians).
// Yaw is around world up, pitch around the camera's right vector.
func (c *Camera) Rotate(deltaPitch, deltaYaw float64) {
	if deltaYaw != 0 {
		yaw := math3d.Rotate(math3d.Up(), deltaYaw)
		c.direction = yaw.MulVec3Dir(c.direction)
		c.up = yaw.MulVec3Dir(c.up)
	}
	if deltaPitch != 0 {
		pitch := math3d.Rotate(c.Right().Normalize(), deltaPitch)
		newDir := pitch.MulVec3Dir(c.direction)
		// Refuse pitching past the poles to avoid flipping over.
		if math.Abs(newDir.Dot(math3d.Up())) < 0.999 {
			c.direction = newDir
			c.up = pitch.MulVec3Dir(c.up)
		}
	}
	c.direction = c.direction.Normalize()
	c.up = c.direction.Cross(c.up).Normalize().Cross(c.direction)
	c.viewDirty = true
}

// Orbit rotates the camera position around a center point while keeping
// the center in view.
func (c *Camera) Orbit(center math3d.Vec3, deltaPitch, deltaYaw float64) {
	offset := c.Position.Sub(center)
	rot := math3d.Rotate(math3d.Up(), deltaYaw).Mul(math3d.Rotate(c.Right().Normalize(), deltaPitch))
	c.Position = center.Add(rot.MulVec3Dir(offset))
	c.LookAt(center)
}

// ViewMatrix returns the view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.computeViewMatrix()
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.computeProjectionMatrix()
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	if c.viewDirty || c.projDirty {
		_ = c.ViewMatrix()
		_ = c.ProjectionMatrix()
		c.viewProjMatrix = c.projMatrix.Mul(c.viewMatrix)
	}
	return c.viewProjMatrix
}

func (c *Camera) computeViewMatrix() {
	f := c.direction.Normalize()
	s := f.Cross(c.up).Normalize() // Right
	u := s.Cross(f)                // Up (re-orthogonalized)
	eye := c.Position

	c.viewMatrix = math3d.Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

func (c *Camera) computeProjectionMatrix() {
	c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
}

// WorldToScreen transforms a world point to screen coordinates.
// Returns (screenX, screenY, depth, visible).
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	// Transform to clip space
	clipPos := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))

	// Check if behind camera
	if clipPos.W <= 0 {
		return 0, 0, 0, false
	}

	// Perspective divide to NDC (-1 to 1)
	ndc := clipPos.PerspectiveDivide()

	// Check if in view frustum
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	// Convert to screen coordinates
	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight) // Y is flipped
	depth = ndc.Z

	return x, y, depth, true
}
