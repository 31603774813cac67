package render

import (
	"math"

	"github.com/Maxar-Corp/wff-tools/pkg/math3d"
)

// Vertex represents a vertex with all attributes needed for rasterization.
type Vertex struct {
	Position math3d.Vec3 // World position
	Normal   math3d.Vec3 // Normal vector (for lighting)
	UV       math3d.Vec2 // Texture coordinates
	Color    Color       // Vertex color
}

// Triangle represents a triangle to be rasterized. FeatureID tags every
// covered fragment in the framebuffer's ID plane.
type Triangle struct {
	V         [3]Vertex
	FeatureID uint32
}

// Rasterizer handles software triangle rasterization.
//
// Besides geometry it owns the two pieces of shared shading state the
// viewer core writes: the uniform map (selection highlight) and the active
// material (display-mode style/shader/blend). Each has exactly one writer;
// the render loop observes whatever was last written when a frame draws.
type Rasterizer struct {
	camera       *Camera
	fb           *Framebuffer
	zbuffer      []float64 // Depth buffer (1D array, row-major)
	frustum      Frustum   // Cached frustum planes
	frustumDirty bool      // Whether frustum needs recalculation

	material Material
	uniforms map[string]float64

	CullingStats           CullingStats // Statistics for debugging/benchmarking
	DisableBackfaceCulling bool         // If true, render both sides of triangles
}

// CullingStats tracks frustum culling performance.
type CullingStats struct {
	MeshesTested int // Total meshes tested for culling
	MeshesCulled int // Meshes culled (not rendered)
	MeshesDrawn  int // Meshes that passed culling
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera:       camera,
		fb:           fb,
		frustumDirty: true,
		material:     NeutralMaterial(),
		uniforms:     make(map[string]float64),
	}
	r.Resize()
	return r
}

// Resize resizes the rasterizer's buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
}

// SetFramebuffer swaps the render target, keeping material and uniform
// state intact. Used on terminal resize.
func (r *Rasterizer) SetFramebuffer(fb *Framebuffer) {
	r.fb = fb
	r.Resize()
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// InvalidateFrustum marks the frustum as needing recalculation.
// Call this when the camera moves or rotates.
func (r *Rasterizer) InvalidateFrustum() {
	r.frustumDirty = true
}

// UpdateFrustum recalculates the frustum planes from the camera.
func (r *Rasterizer) UpdateFrustum() {
	if r.frustumDirty {
		r.frustum = ExtractFrustum(r.camera.ViewProjectionMatrix())
		r.frustumDirty = false
	}
}

// GetFrustum returns the current frustum (updating if needed).
func (r *Rasterizer) GetFrustum() Frustum {
	r.UpdateFrustum()
	return r.frustum
}

// ResetCullingStats resets the culling statistics (call once per frame).
func (r *Rasterizer) ResetCullingStats() {
	r.CullingStats = CullingStats{}
}

// IsVisible tests if a world-space AABB is visible in the frustum.
func (r *Rasterizer) IsVisible(worldBounds AABB) bool {
	r.UpdateFrustum()
	return r.frustum.IntersectsFrustum(worldBounds)
}

// IsVisibleTransformed tests if a local-space AABB is visible after transformation.
func (r *Rasterizer) IsVisibleTransformed(localBounds AABB, transform math3d.Mat4) bool {
	worldBounds := TransformAABB(localBounds, transform)
	return r.IsVisible(worldBounds)
}

// getDepth returns the depth at (x, y).
func (r *Rasterizer) getDepth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return math.MaxFloat64
	}
	return r.zbuffer[y*r.Width()+x]
}

// setDepth sets the depth at (x, y).
func (r *Rasterizer) setDepth(x, y int, z float64) {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return
	}
	r.zbuffer[y*r.Width()+x] = z
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y   float64 // Screen coordinates
	Z      float64 // Depth (for Z-buffer)
	W      float64 // W coordinate (for perspective-correct interpolation)
	Color  Color
	Normal math3d.Vec3
	UV     math3d.Vec2
}

// DrawTriangle rasterizes a triangle with Gouraud shading, optional
// texturing and the full material pipeline (style, shader, highlight).
// Every covered fragment is tagged with the triangle's feature ID.
func (r *Rasterizer) DrawTriangle(tri Triangle, tex *Texture, lightDir math3d.Vec3) {
	// Transform vertices to screen space
	var sv [3]screenVertex
	var vertexIntensity [3]float64
	allBehind := true

	viewProj := r.camera.ViewProjectionMatrix()
	normLight := lightDir.Normalize()

	for i := range 3 {
		// Transform to clip space
		clipPos := viewProj.MulVec4(math3d.V4FromV3(tri.V[i].Position, 1))

		// Check if behind camera
		if clipPos.W > 0 {
			allBehind = false
		}

		// Perspective divide
		if clipPos.W != 0 {
			sv[i].X = clipPos.X / clipPos.W
			sv[i].Y = clipPos.Y / clipPos.W
			sv[i].Z = clipPos.Z / clipPos.W
		}
		sv[i].W = clipPos.W

		// NDC to screen coordinates
		sv[i].X = (sv[i].X + 1) * 0.5 * float64(r.Width())
		sv[i].Y = (1 - sv[i].Y) * 0.5 * float64(r.Height()) // Y flipped

		// Per-vertex lighting intensity (ambient + diffuse)
		intensity := math.Max(0, tri.V[i].Normal.Dot(normLight))
		vertexIntensity[i] = 0.3 + 0.7*intensity

		// Copy other attributes
		sv[i].Color = tri.V[i].Color
		sv[i].Normal = tri.V[i].Normal
		sv[i].UV = tri.V[i].UV
	}

	// Skip if entirely behind camera
	if allBehind {
		return
	}

	// Backface culling (using screen-space winding)
	edge1 := math3d.V2(sv[1].X-sv[0].X, sv[1].Y-sv[0].Y)
	edge2 := math3d.V2(sv[2].X-sv[0].X, sv[2].Y-sv[0].Y)
	cross := edge1.X*edge2.Y - edge1.Y*edge2.X
	if cross < 0 && !r.DisableBackfaceCulling {
		return // Back-facing
	}

	// Find bounding box
	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	// Precompute perspective-correct interpolation factors (1/w per vertex)
	var invW [3]float64
	for i := range 3 {
		if sv[i].W != 0 {
			invW[i] = 1.0 / sv[i].W
		}
	}

	// Rasterize using barycentric coordinates with perspective correction
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5

			// Calculate barycentric coordinates
			bc := barycentric(
				sv[0].X, sv[0].Y,
				sv[1].X, sv[1].Y,
				sv[2].X, sv[2].Y,
				px, py,
			)

			// Check if inside triangle
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			// Interpolate depth
			z := bc.X*sv[0].Z + bc.Y*sv[1].Z + bc.Z*sv[2].Z

			// Z-buffer test
			if z >= r.getDepth(x, y) {
				continue
			}

			// Perspective-correct interpolation
			w0, w1, w2 := bc.X*invW[0], bc.Y*invW[1], bc.Z*invW[2]
			oneOverW := w0 + w1 + w2
			if oneOverW == 0 {
				continue
			}

			// Perspective-correct lighting intensity interpolation
			intensity := (w0*vertexIntensity[0] + w1*vertexIntensity[1] + w2*vertexIntensity[2]) / oneOverW

			var base Color
			if tex != nil {
				// Perspective-correct UV interpolation
				u := (w0*sv[0].UV.X + w1*sv[1].UV.X + w2*sv[2].UV.X) / oneOverW
				v := (w0*sv[0].UV.Y + w1*sv[1].UV.Y + w2*sv[2].UV.Y) / oneOverW
				base = MultiplyColor(tex.Sample(u, v), intensity)
			} else {
				base = MultiplyColor(interpolateColor3(sv[0].Color, sv[1].Color, sv[2].Color, bc), intensity)
			}

			shaded := r.shadeFragment(base, tri.FeatureID, intensity)

			// Set fragment (color + feature ID)
			r.setDepth(x, y, z)
			r.fb.SetFragment(x, y, shaded, tri.FeatureID)
		}
	}
}

// barycentric calculates barycentric coordinates of point (px, py) in the
// triangle (x0,y0), (x1,y1), (x2,y2).
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	// Compute twice the signed area of the triangle
	area := (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
	if area == 0 {
		return math3d.V3(-1, -1, -1) // Degenerate triangle
	}

	// Barycentric coordinates via sub-triangle areas
	w0 := ((x1-px)*(y2-py) - (x2-px)*(y1-py)) / area
	w1 := ((x2-px)*(y0-py) - (x0-px)*(y2-py)) / area
	w2 := 1 - w0 - w1

	return math3d.V3(w0, w1, w2)
}

// interpolateColor3 interpolates a color using barycentric coordinates.
func interpolateColor3(c0, c1, c2 Color, bc math3d.Vec3) Color {
	return Color{
		R: uint8(float64(c0.R)*bc.X + float64(c1.R)*bc.Y + float64(c2.R)*bc.Z),
		G: uint8(float64(c0.G)*bc.X + float64(c1.G)*bc.Y + float64(c2.G)*bc.Z),
		B: uint8(float64(c0.B)*bc.X + float64(c1.B)*bc.Y + float64(c2.B)*bc.Z),
		A: 255,
	}
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// MeshRenderer is the minimal geometry interface the rasterizer draws.
// Declared here rather than in the tiles package to avoid circular deps.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// FeatureMeshRenderer extends MeshRenderer with per-face feature IDs for
// picking and per-feature styling.
type FeatureMeshRenderer interface {
	MeshRenderer
	GetFaceFeature(i int) uint32
}

// BoundedMeshRenderer extends MeshRenderer with bounding box support for frustum culling.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max math3d.Vec3)
}

// tryFrustumCull attempts to cull a mesh using its bounds if available.
// Returns true if the mesh should be culled (not visible).
func (r *Rasterizer) tryFrustumCull(mesh MeshRenderer, transform math3d.Mat4) bool {
	bounded, ok := mesh.(BoundedMeshRenderer)
	if !ok {
		// No bounds available, can't cull
		return false
	}

	r.CullingStats.MeshesTested++

	minBounds, maxBounds := bounded.GetBounds()
	localBounds := AABB{Min: minBounds, Max: maxBounds}

	if !r.IsVisibleTransformed(localBounds, transform) {
		r.CullingStats.MeshesCulled++
		return true
	}

	r.CullingStats.MeshesDrawn++
	return false
}

// DrawMesh renders a mesh through the material pipeline, with Gouraud
// shading, optional texture (nil falls back to the given base color) and
// per-face feature IDs when the mesh provides them. Performs frustum
// culling if the mesh provides bounds.
func (r *Rasterizer) DrawMesh(mesh MeshRenderer, transform math3d.Mat4, tex *Texture, baseColor Color, lightDir math3d.Vec3) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}

	featured, hasFeatures := mesh.(FeatureMeshRenderer)

	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)

		// Get vertices with all attributes
		p0, n0, uv0 := mesh.GetVertex(face[0])
		p1, n1, uv1 := mesh.GetVertex(face[1])
		p2, n2, uv2 := mesh.GetVertex(face[2])

		// Transform positions to world space
		v0 := transform.MulVec3(p0)
		v1 := transform.MulVec3(p1)
		v2 := transform.MulVec3(p2)

		// Transform normals (rotation only)
		wn0 := transform.MulVec3Dir(n0).Normalize()
		wn1 := transform.MulVec3Dir(n1).Normalize()
		wn2 := transform.MulVec3Dir(n2).Normalize()

		tri := Triangle{
			V: [3]Vertex{
				{Position: v0, Normal: wn0, UV: uv0, Color: baseColor},
				{Position: v1, Normal: wn1, UV: uv1, Color: baseColor},
				{Position: v2, Normal: wn2, UV: uv2, Color: baseColor},
			},
			FeatureID: NoFeature,
		}
		if hasFeatures {
			tri.FeatureID = featured.GetFaceFeature(i)
		}

		r.DrawTriangle(tri, tex, lightDir)
	}
}
