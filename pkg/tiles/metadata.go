package tiles

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// extStructuralMetadata is the glTF extension carrying property tables.
// The older EXT_feature_metadata name is accepted as a fallback, matching
// tiles produced by earlier pipelines.
const (
	extStructuralMetadata = "EXT_structural_metadata"
	extFeatureMetadata    = "EXT_feature_metadata"
)

// PropertyTable is a decoded per-feature attribute table. Rows are feature
// IDs; columns are named, string-valued properties in schema declaration
// order.
type PropertyTable struct {
	Name  string
	Class string
	Count int

	names   []string            // Declaration order
	columns map[string][]string // name -> per-row values
}

// PropertyNames returns the property names in their declaration order.
func (t *PropertyTable) PropertyNames() []string {
	return t.names
}

// Value returns the value of a property for a given feature row.
// Out-of-range rows or unknown names yield "".
func (t *PropertyTable) Value(name string, row int) string {
	col, ok := t.columns[name]
	if !ok || row < 0 || row >= len(col) {
		return ""
	}
	return col[row]
}

// Feature is one row of a property table, addressable by feature ID.
// It satisfies the viewer's Feature interface.
type Feature struct {
	id    uint32
	table *PropertyTable
}

// FeatureFromTable returns the feature for a table row. The second return
// is false when the row is outside the table.
func FeatureFromTable(table *PropertyTable, id uint32) (Feature, bool) {
	if table == nil || int(id) >= table.Count {
		return Feature{}, false
	}
	return Feature{id: id, table: table}, true
}

// ID returns the feature's integer identity.
func (f Feature) ID() int {
	return int(f.id)
}

// PropertyNames returns the feature's property names in table order.
func (f Feature) PropertyNames() []string {
	return f.table.PropertyNames()
}

// Property returns the named property value for this feature.
func (f Feature) Property(name string) string {
	return f.table.Value(name, int(f.id))
}

// --- raw extension JSON ---

// classProperty describes one schema column.
type classProperty struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	ComponentType string `json:"componentType"`
}

// tableProperty points a column at its binary storage.
type tableProperty struct {
	Values           int    `json:"values"`
	StringOffsets    *int   `json:"stringOffsets"`
	StringOffsetType string `json:"stringOffsetType"`
}

// orderedProperties is a JSON object whose key order is preserved.
// encoding/json maps lose declaration order, but the viewer presents
// properties in the order the schema declares them.
type orderedProperties struct {
	names []string
	props map[string]tableProperty
}

func (p *orderedProperties) UnmarshalJSON(b []byte) error {
	p.props = make(map[string]tableProperty)
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("properties: expected object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("properties: expected string key")
		}
		var prop tableProperty
		if err := dec.Decode(&prop); err != nil {
			return fmt.Errorf("properties[%s]: %w", key, err)
		}
		p.names = append(p.names, key)
		p.props[key] = prop
	}
	return nil
}

type rawPropertyTable struct {
	Name       string            `json:"name"`
	Class      string            `json:"class"`
	Count      int               `json:"count"`
	Properties orderedProperties `json:"properties"`
}

type rawSchema struct {
	Classes map[string]struct {
		Properties map[string]classProperty `json:"properties"`
	} `json:"classes"`
}

type rawStructuralMetadata struct {
	Schema         rawSchema          `json:"schema"`
	PropertyTables []rawPropertyTable `json:"propertyTables"`
}

// decodePropertyTables decodes the structural-metadata extension into
// tables of stringified values. bufferView resolves a buffer view index
// to its raw bytes.
func decodePropertyTables(raw json.RawMessage, bufferView func(int) ([]byte, error)) ([]*PropertyTable, error) {
	var meta rawStructuralMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	tables := make([]*PropertyTable, 0, len(meta.PropertyTables))
	for _, rt := range meta.PropertyTables {
		table := &PropertyTable{
			Name:    rt.Name,
			Class:   rt.Class,
			Count:   rt.Count,
			names:   rt.Properties.names,
			columns: make(map[string][]string, len(rt.Properties.names)),
		}

		classProps := meta.Schema.Classes[rt.Class].Properties

		for _, name := range rt.Properties.names {
			prop := rt.Properties.props[name]
			cls := classProps[name]

			data, err := bufferView(prop.Values)
			if err != nil {
				return nil, fmt.Errorf("table %q property %q: %w", rt.Name, name, err)
			}

			var col []string
			switch cls.Type {
			case "STRING":
				if prop.StringOffsets == nil {
					return nil, fmt.Errorf("table %q property %q: STRING without offsets", rt.Name, name)
				}
				offsets, err := bufferView(*prop.StringOffsets)
				if err != nil {
					return nil, fmt.Errorf("table %q property %q offsets: %w", rt.Name, name, err)
				}
				col, err = decodeStringColumn(data, offsets, prop.StringOffsetType, rt.Count)
				if err != nil {
					return nil, fmt.Errorf("table %q property %q: %w", rt.Name, name, err)
				}
			case "SCALAR", "":
				col, err = decodeScalarColumn(data, cls.ComponentType, rt.Count)
				if err != nil {
					return nil, fmt.Errorf("table %q property %q: %w", rt.Name, name, err)
				}
			default:
				// Vector/matrix/enum columns are not displayed; keep the
				// column present so enumeration order stays intact.
				col = make([]string, rt.Count)
			}

			table.columns[name] = col
		}

		tables = append(tables, table)
	}
	return tables, nil
}

// decodeStringColumn splits a packed UTF-8 blob by its offset buffer.
func decodeStringColumn(data, offsets []byte, offsetType string, count int) ([]string, error) {
	offsetAt := func(i int) (int, error) {
		switch offsetType {
		case "UINT8":
			if i >= len(offsets) {
				return 0, fmt.Errorf("offset %d out of range", i)
			}
			return int(offsets[i]), nil
		case "UINT16":
			if i*2+1 >= len(offsets) {
				return 0, fmt.Errorf("offset %d out of range", i)
			}
			return int(binary.LittleEndian.Uint16(offsets[i*2:])), nil
		case "UINT64":
			if i*8+7 >= len(offsets) {
				return 0, fmt.Errorf("offset %d out of range", i)
			}
			return int(binary.LittleEndian.Uint64(offsets[i*8:])), nil
		default: // glTF defaults string offsets to UINT32
			if i*4+3 >= len(offsets) {
				return 0, fmt.Errorf("offset %d out of range", i)
			}
			return int(binary.LittleEndian.Uint32(offsets[i*4:])), nil
		}
	}

	col := make([]string, count)
	for i := range count {
		start, err := offsetAt(i)
		if err != nil {
			return nil, err
		}
		end, err := offsetAt(i + 1)
		if err != nil {
			return nil, err
		}
		if start > end || end > len(data) {
			return nil, fmt.Errorf("string %d: bad offsets [%d,%d)", i, start, end)
		}
		col[i] = string(data[start:end])
	}
	return col, nil
}

// decodeScalarColumn stringifies a scalar column of the given component
// type.
func decodeScalarColumn(data []byte, componentType string, count int) ([]string, error) {
	col := make([]string, count)
	for i := range count {
		var v string
		switch componentType {
		case "INT8":
			if i >= len(data) {
				return nil, fmt.Errorf("scalar %d out of range", i)
			}
			v = strconv.FormatInt(int64(int8(data[i])), 10)
		case "UINT8":
			if i >= len(data) {
				return nil, fmt.Errorf("scalar %d out of range", i)
			}
			v = strconv.FormatUint(uint64(data[i]), 10)
		case "INT16":
			if i*2+1 >= len(data) {
				return nil, fmt.Errorf("scalar %d out of range", i)
			}
			v = strconv.FormatInt(int64(int16(binary.LittleEndian.Uint16(data[i*2:]))), 10)
		case "UINT16":
			if i*2+1 >= len(data) {
				return nil, fmt.Errorf("scalar %d out of range", i)
			}
			v = strconv.FormatUint(uint64(binary.LittleEndian.Uint16(data[i*2:])), 10)
		case "INT32":
			if i*4+3 >= len(data) {
				return nil, fmt.Errorf("scalar %d out of range", i)
			}
			v = strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(data[i*4:]))), 10)
		case "UINT32", "":
			if i*4+3 >= len(data) {
				return nil, fmt.Errorf("scalar %d out of range", i)
			}
			v = strconv.FormatUint(uint64(binary.LittleEndian.Uint32(data[i*4:])), 10)
		case "INT64":
			if i*8+7 >= len(data) {
				return nil, fmt.Errorf("scalar %d out of range", i)
			}
			v = strconv.FormatInt(int64(binary.LittleEndian.Uint64(data[i*8:])), 10)
		case "UINT64":
			if i*8+7 >= len(data) {
				return nil, fmt.Errorf("scalar %d out of range", i)
			}
			v = strconv.FormatUint(binary.LittleEndian.Uint64(data[i*8:]), 10)
		case "FLOAT32":
			if i*4+3 >= len(data) {
				return nil, fmt.Errorf("scalar %d out of range", i)
			}
			f := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
			v = strconv.FormatFloat(float64(f), 'g', -1, 32)
		case "FLOAT64":
			if i*8+7 >= len(data) {
				return nil, fmt.Errorf("scalar %d out of range", i)
			}
			f := math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
			v = strconv.FormatFloat(f, 'g', -1, 64)
		default:
			return nil, fmt.Errorf("unsupported component type %q", componentType)
		}
		col[i] = v
	}
	return col, nil
}
