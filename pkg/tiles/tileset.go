package tiles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Tileset is a parsed tileset.json document.
type Tileset struct {
	Asset          Asset   `json:"asset"`
	GeometricError float64 `json:"geometricError"`
	Root           Tile    `json:"root"`
}

// Asset identifies the tileset version.
type Asset struct {
	Version string `json:"version"`
}

// Tile is one node of the tileset tree.
type Tile struct {
	BoundingVolume BoundingVolume `json:"boundingVolume"`
	GeometricError float64        `json:"geometricError"`
	Refine         string         `json:"refine,omitempty"`
	Content        *TileContent   `json:"content,omitempty"`
	Children       []Tile         `json:"children,omitempty"`
}

// TileContent points at the tile's renderable payload.
type TileContent struct {
	URI string `json:"uri"`
	// Older tilesets use "url"
	URL string `json:"url,omitempty"`
}

// Location returns the content reference, whichever key it used.
func (c *TileContent) Location() string {
	if c.URI != "" {
		return c.URI
	}
	return c.URL
}

// BoundingVolume holds one of the 3D Tiles bounding volume variants.
type BoundingVolume struct {
	Box    []float64 `json:"box,omitempty"`
	Region []float64 `json:"region,omitempty"`
	Sphere []float64 `json:"sphere,omitempty"`
}

// LoadTileset parses a tileset.json file.
func LoadTileset(path string) (*Tileset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tileset: %w", err)
	}

	var ts Tileset
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("parse tileset: %w", err)
	}
	if ts.Asset.Version == "" {
		return nil, fmt.Errorf("tileset has no asset version")
	}
	return &ts, nil
}

// ContentURIs walks the tile tree and returns every GLB content location,
// resolved relative to baseDir, in depth-first order.
func (t *Tileset) ContentURIs(baseDir string) []string {
	var uris []string
	var walk func(tile *Tile)
	walk = func(tile *Tile) {
		if tile.Content != nil {
			loc := tile.Content.Location()
			if strings.HasSuffix(strings.ToLower(loc), ".glb") {
				uris = append(uris, filepath.Join(baseDir, filepath.FromSlash(loc)))
			}
		}
		for i := range tile.Children {
			walk(&tile.Children[i])
		}
	}
	walk(&t.Root)
	return uris
}

// LoadContents loads every GLB tile referenced by a tileset. Tiles that
// fail to load are skipped; the error reports only when nothing loaded.
func LoadContents(tilesetPath string) ([]*Content, error) {
	ts, err := LoadTileset(tilesetPath)
	if err != nil {
		return nil, err
	}

	uris := ts.ContentURIs(filepath.Dir(tilesetPath))
	if len(uris) == 0 {
		return nil, fmt.Errorf("tileset references no GLB content")
	}

	loader := NewLoader()
	contents := make([]*Content, 0, len(uris))
	var firstErr error
	for _, uri := range uris {
		content, err := loader.Load(uri)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("load %s: %w", uri, err)
			}
			continue
		}
		contents = append(contents, content)
	}
	if len(contents) == 0 {
		return nil, firstErr
	}
	return contents, nil
}
