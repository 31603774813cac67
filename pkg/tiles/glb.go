package tiles

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/qmuntal/gltf"

	"github.com/Maxar-Corp/wff-tools/pkg/math3d"
)

// featureIDAttribute is the glTF vertex attribute carrying per-vertex
// feature IDs.
const featureIDAttribute = "_FEATUREID_0"

// Content is one renderable tile payload: geometry, optional surface
// texture, and the per-feature property table (nil when the tile carries
// no metadata).
type Content struct {
	Mesh    *Mesh
	Texture image.Image
	Table   *PropertyTable
}

// Feature resolves a feature ID against the content's property table.
func (c *Content) Feature(id uint32) (Feature, bool) {
	return FeatureFromTable(c.Table, id)
}

// MaxFeatureID returns the highest feature ID in the content, or -1.
func (c *Content) MaxFeatureID() int {
	if c.Table != nil {
		return c.Table.Count - 1
	}
	return c.Mesh.MaxFeatureID()
}

// Loader loads GLB/glTF tile content.
type Loader struct {
	// SmoothNormals averages vertex normals when the file has none.
	SmoothNormals bool
}

// NewLoader creates a loader with default options.
func NewLoader() *Loader {
	return &Loader{SmoothNormals: true}
}

// LoadGLB loads a binary glTF tile with default options.
func LoadGLB(path string) (*Content, error) {
	return NewLoader().Load(path)
}

// Load loads a GLB or glTF file and returns the tile content.
func (l *Loader) Load(path string) (*Content, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))

	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	// Calculate normals if the file carries none
	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}
	if !hasNormals && l.SmoothNormals {
		mesh.CalculateSmoothNormals()
	}

	mesh.CalculateBounds()

	content := &Content{Mesh: mesh}

	if table, err := loadPropertyTable(doc); err == nil {
		content.Table = table
	} else {
		return nil, fmt.Errorf("property table: %w", err)
	}

	content.Texture = firstEmbeddedTexture(doc, path)

	return content, nil
}

// processMesh extracts geometry and feature IDs from a glTF mesh.
func (l *Loader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		// Per-vertex feature IDs; tiles without the attribute collapse
		// into a single feature 0.
		var featureIDs []uint32
		if fidIdx, ok := prim.Attributes[featureIDAttribute]; ok {
			featureIDs, err = readScalarAccessor(doc, fidIdx)
			if err != nil {
				return fmt.Errorf("read feature ids: %w", err)
			}
		}

		baseVertex := len(mesh.Vertices)

		for i := range positions {
			v := MeshVertex{
				Position: positions[i],
			}
			if i < len(normals) {
				v.Normal = normals[i]
			}
			if i < len(uvs) {
				// glTF uses top-left origin (V=0 at top), flip V for bottom-left origin
				v.UV = math3d.V2(uvs[i].X, 1.0-uvs[i].Y)
			}
			if i < len(featureIDs) {
				v.FeatureID = featureIDs[i]
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		if prim.Indices != nil {
			indices, err := readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}

			// glTF uses CCW winding for front-facing, but the rasterizer
			// uses CW (due to Y-flip in screen space), so reverse here
			for i := 0; i+2 < len(indices); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{
					V: [3]int{
						baseVertex + indices[i],
						baseVertex + indices[i+2], // swapped
						baseVertex + indices[i+1], // swapped
					},
				})
			}
		} else {
			// No indices, assume sequential triangles; reverse winding too
			for i := 0; i+2 < len(positions); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{
					V: [3]int{
						baseVertex + i,
						baseVertex + i + 2, // swapped
						baseVertex + i + 1, // swapped
					},
				})
			}
		}
	}

	return nil
}

// loadPropertyTable decodes the first property table from the document's
// metadata extension, or nil when the tile has none.
func loadPropertyTable(doc *gltf.Document) (*PropertyTable, error) {
	raw, ok := rawExtension(doc.Extensions, extStructuralMetadata)
	if !ok {
		raw, ok = rawExtension(doc.Extensions, extFeatureMetadata)
	}
	if !ok {
		return nil, nil
	}

	tables, err := decodePropertyTables(raw, func(idx int) ([]byte, error) {
		return bufferViewData(doc, idx)
	})
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, nil
	}
	return tables[0], nil
}

// rawExtension fetches an extension payload as raw JSON regardless of how
// the decoder materialized it.
func rawExtension(ext gltf.Extensions, name string) (json.RawMessage, bool) {
	v, ok := ext[name]
	if !ok {
		return nil, false
	}
	switch t := v.(type) {
	case json.RawMessage:
		return t, true
	case []byte:
		return json.RawMessage(t), true
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		return b, true
	}
}

// bufferViewData returns the raw bytes of a buffer view.
func bufferViewData(doc *gltf.Document, idx int) ([]byte, error) {
	if idx < 0 || idx >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", idx)
	}
	bv := doc.BufferViews[idx]
	buffer := doc.Buffers[bv.Buffer]
	if buffer.Data == nil {
		return nil, fmt.Errorf("buffer view %d: buffer has no data", idx)
	}
	start := int(bv.ByteOffset)
	end := start + int(bv.ByteLength)
	if end > len(buffer.Data) {
		return nil, fmt.Errorf("buffer view %d out of bounds", idx)
	}
	return buffer.Data[start:end], nil
}

// firstEmbeddedTexture decodes the first usable image in the document.
func firstEmbeddedTexture(doc *gltf.Document, path string) image.Image {
	for _, img := range doc.Images {
		var data []byte
		if img.BufferView != nil {
			bv := doc.BufferViews[*img.BufferView]
			buf := doc.Buffers[bv.Buffer]
			if buf.Data != nil {
				start := bv.ByteOffset
				end := start + bv.ByteLength
				data = buf.Data[start:end]
			}
		} else if img.URI != "" {
			fileData, err := os.ReadFile(filepath.Join(filepath.Dir(path), img.URI))
			if err == nil {
				data = fileData
			}
		}
		if len(data) == 0 {
			continue
		}
		if decoded, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			return decoded
		}
	}
	return nil
}

// readVec3Accessor reads Vec3 data from a glTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	floats, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC3")
	}

	result := make([]math3d.Vec3, len(floats))
	for i, f := range floats {
		result[i] = math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
	}

	return result, nil
}

// readVec2Accessor reads Vec2 data from a glTF accessor.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected VEC2, got %v", accessor.Type)
	}

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	floats, ok := data.([][2]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC2")
	}

	result := make([]math3d.Vec2, len(floats))
	for i, f := range floats {
		result[i] = math3d.V2(float64(f[0]), float64(f[1]))
	}

	return result, nil
}

// readScalarAccessor reads unsigned scalar data widened to uint32.
func readScalarAccessor(doc *gltf.Document, accessorIdx int) ([]uint32, error) {
	accessor := doc.Accessors[accessorIdx]

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	switch v := data.(type) {
	case []uint8:
		result := make([]uint32, len(v))
		for i, x := range v {
			result[i] = uint32(x)
		}
		return result, nil
	case []uint16:
		result := make([]uint32, len(v))
		for i, x := range v {
			result[i] = uint32(x)
		}
		return result, nil
	case []uint32:
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected scalar type: %T", data)
	}
}

// readIndices reads index data from a glTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	switch v := data.(type) {
	case []uint8:
		result := make([]int, len(v))
		for i, x := range v {
			result[i] = int(x)
		}
		return result, nil
	case []uint16:
		result := make([]int, len(v))
		for i, x := range v {
			result[i] = int(x)
		}
		return result, nil
	case []uint32:
		result := make([]int, len(v))
		for i, x := range v {
			result[i] = int(x)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unexpected index type: %T", data)
	}
}

// readAccessorData reads raw data from a glTF accessor.
func readAccessorData(doc *gltf.Document, accessor *gltf.Accessor) (any, error) {
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor has no buffer view")
	}

	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	// Get buffer data
	var bufData []byte
	if buffer.URI == "" {
		// Embedded data (GLB)
		bufData = buffer.Data
	} else {
		// External file - need to load relative to document
		return nil, fmt.Errorf("external buffers not supported yet")
	}

	if bufData == nil {
		return nil, fmt.Errorf("buffer has no data")
	}

	// Calculate data bounds
	start := bufferView.ByteOffset + accessor.ByteOffset
	stride := bufferView.ByteStride
	count := accessor.Count

	// Read based on component type and accessor type
	switch accessor.Type {
	case gltf.AccessorVec3:
		if stride == 0 {
			stride = 12 // 3 floats * 4 bytes
		}
		result := make([][3]float32, count)
		for i := range count {
			offset := start + i*stride
			for j := range 3 {
				result[i][j] = readFloat32(bufData[offset+j*4:])
			}
		}
		return result, nil

	case gltf.AccessorVec2:
		if stride == 0 {
			stride = 8 // 2 floats * 4 bytes
		}
		result := make([][2]float32, count)
		for i := range count {
			offset := start + i*stride
			for j := range 2 {
				result[i][j] = readFloat32(bufData[offset+j*4:])
			}
		}
		return result, nil

	case gltf.AccessorScalar:
		if stride == 0 {
			switch accessor.ComponentType {
			case gltf.ComponentUbyte:
				stride = 1
			case gltf.ComponentUshort:
				stride = 2
			case gltf.ComponentUint, gltf.ComponentFloat:
				stride = 4
			}
		}

		switch accessor.ComponentType {
		case gltf.ComponentUbyte:
			result := make([]uint8, count)
			for i := range count {
				result[i] = bufData[start+i*stride]
			}
			return result, nil
		case gltf.ComponentUshort:
			result := make([]uint16, count)
			for i := range count {
				offset := start + i*stride
				result[i] = uint16(bufData[offset]) | uint16(bufData[offset+1])<<8
			}
			return result, nil
		case gltf.ComponentUint:
			result := make([]uint32, count)
			for i := range count {
				offset := start + i*stride
				result[i] = uint32(bufData[offset]) |
					uint32(bufData[offset+1])<<8 |
					uint32(bufData[offset+2])<<16 |
					uint32(bufData[offset+3])<<24
			}
			return result, nil
		case gltf.ComponentFloat:
			// Some exporters store feature IDs as floats
			result := make([]uint32, count)
			for i := range count {
				result[i] = uint32(readFloat32(bufData[start+i*stride:]))
			}
			return result, nil
		}
	}

	return nil, fmt.Errorf("unsupported accessor type: %v / %v", accessor.Type, accessor.ComponentType)
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return float32frombits(bits)
}

// float32frombits converts bits to float32.
func float32frombits(b uint32) float32 {
	return *(*float32)(unsafe.Pointer(&b))
}
