package tiles

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"testing"
)

// tableFixture builds the raw extension JSON plus buffer views for a
// small two-row table with a string and a scalar column.
func tableFixture(t *testing.T) (json.RawMessage, func(int) ([]byte, error)) {
	t.Helper()

	raw := json.RawMessage(`{
		"schema": {
			"classes": {
				"building": {
					"properties": {
						"name":   {"type": "STRING"},
						"floors": {"type": "SCALAR", "componentType": "UINT16"}
					}
				}
			}
		},
		"propertyTables": [{
			"name": "buildings",
			"class": "building",
			"count": 2,
			"properties": {
				"name":   {"values": 0, "stringOffsets": 1},
				"floors": {"values": 2}
			}
		}]
	}`)

	// View 0: packed strings, view 1: UINT32 offsets, view 2: UINT16 scalars
	names := []byte("towerdepot")
	offsets := make([]byte, 12)
	binary.LittleEndian.PutUint32(offsets[0:], 0)
	binary.LittleEndian.PutUint32(offsets[4:], 5)
	binary.LittleEndian.PutUint32(offsets[8:], 10)
	floors := make([]byte, 4)
	binary.LittleEndian.PutUint16(floors[0:], 12)
	binary.LittleEndian.PutUint16(floors[2:], 3)

	views := [][]byte{names, offsets, floors}
	bufferView := func(i int) ([]byte, error) {
		if i < 0 || i >= len(views) {
			return nil, fmt.Errorf("no view %d", i)
		}
		return views[i], nil
	}
	return raw, bufferView
}

func TestDecodePropertyTables(t *testing.T) {
	raw, bufferView := tableFixture(t)

	tables, err := decodePropertyTables(raw, bufferView)
	if err != nil {
		t.Fatalf("decodePropertyTables: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("tables = %d", len(tables))
	}

	table := tables[0]
	if table.Name != "buildings" || table.Class != "building" || table.Count != 2 {
		t.Errorf("table header = %+v", table)
	}
	if table.Value("name", 0) != "tower" || table.Value("name", 1) != "depot" {
		t.Errorf("name column = %q, %q", table.Value("name", 0), table.Value("name", 1))
	}
	if table.Value("floors", 0) != "12" || table.Value("floors", 1) != "3" {
		t.Errorf("floors column = %q, %q", table.Value("floors", 0), table.Value("floors", 1))
	}
}

func TestPropertyNamesKeepDeclarationOrder(t *testing.T) {
	// Keys deliberately in non-alphabetical order; a plain map would
	// scramble them.
	raw := json.RawMessage(`{
		"schema": {"classes": {"c": {"properties": {
			"zone": {"type": "SCALAR", "componentType": "UINT8"},
			"area": {"type": "SCALAR", "componentType": "UINT8"},
			"name": {"type": "SCALAR", "componentType": "UINT8"}
		}}}},
		"propertyTables": [{
			"class": "c",
			"count": 1,
			"properties": {
				"zone": {"values": 0},
				"area": {"values": 0},
				"name": {"values": 0}
			}
		}]
	}`)
	bufferView := func(int) ([]byte, error) { return []byte{1}, nil }

	tables, err := decodePropertyTables(raw, bufferView)
	if err != nil {
		t.Fatal(err)
	}

	got := tables[0].PropertyNames()
	want := []string{"zone", "area", "name"}
	if len(got) != len(want) {
		t.Fatalf("names = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFeatureFromTable(t *testing.T) {
	raw, bufferView := tableFixture(t)
	tables, err := decodePropertyTables(raw, bufferView)
	if err != nil {
		t.Fatal(err)
	}
	table := tables[0]

	f, ok := FeatureFromTable(table, 1)
	if !ok {
		t.Fatal("row 1 should resolve")
	}
	if f.ID() != 1 {
		t.Errorf("ID = %d", f.ID())
	}
	if f.Property("name") != "depot" || f.Property("floors") != "3" {
		t.Errorf("properties = %q, %q", f.Property("name"), f.Property("floors"))
	}
	if f.Property("missing") != "" {
		t.Error("unknown property should be empty")
	}

	if _, ok := FeatureFromTable(table, 2); ok {
		t.Error("row beyond count should not resolve")
	}
	if _, ok := FeatureFromTable(nil, 0); ok {
		t.Error("nil table should not resolve")
	}
}

func TestDecodeStringColumnOffsetTypes(t *testing.T) {
	data := []byte("abcd")

	tests := []struct {
		offsetType string
		offsets    []byte
	}{
		{"UINT8", []byte{0, 2, 4}},
		{"UINT16", func() []byte {
			b := make([]byte, 6)
			binary.LittleEndian.PutUint16(b[2:], 2)
			binary.LittleEndian.PutUint16(b[4:], 4)
			return b
		}()},
		{"UINT32", func() []byte {
			b := make([]byte, 12)
			binary.LittleEndian.PutUint32(b[4:], 2)
			binary.LittleEndian.PutUint32(b[8:], 4)
			return b
		}()},
		{"UINT64", func() []byte {
			b := make([]byte, 24)
			binary.LittleEndian.PutUint64(b[8:], 2)
			binary.LittleEndian.PutUint64(b[16:], 4)
			return b
		}()},
	}

	for _, tc := range tests {
		t.Run(tc.offsetType, func(t *testing.T) {
			col, err := decodeStringColumn(data, tc.offsets, tc.offsetType, 2)
			if err != nil {
				t.Fatal(err)
			}
			if col[0] != "ab" || col[1] != "cd" {
				t.Errorf("col = %v", col)
			}
		})
	}
}

func TestDecodeStringColumnBadOffsets(t *testing.T) {
	offsets := make([]byte, 12)
	binary.LittleEndian.PutUint32(offsets[0:], 5)
	binary.LittleEndian.PutUint32(offsets[4:], 2) // start > end

	if _, err := decodeStringColumn([]byte("abcdef"), offsets, "UINT32", 2); err == nil {
		t.Error("expected error for reversed offsets")
	}
}

func TestDecodeScalarColumnTypes(t *testing.T) {
	f32 := make([]byte, 4)
	binary.LittleEndian.PutUint32(f32, math.Float32bits(1.5))
	i8 := []byte{0xFF} // -1

	tests := []struct {
		componentType string
		data          []byte
		count         int
		want          string
	}{
		{"UINT8", []byte{200}, 1, "200"},
		{"INT8", i8, 1, "-1"},
		{"UINT32", []byte{1, 0, 0, 0}, 1, "1"},
		{"FLOAT32", f32, 1, "1.5"},
	}

	for _, tc := range tests {
		t.Run(tc.componentType, func(t *testing.T) {
			col, err := decodeScalarColumn(tc.data, tc.componentType, tc.count)
			if err != nil {
				t.Fatal(err)
			}
			if col[0] != tc.want {
				t.Errorf("col[0] = %q, want %q", col[0], tc.want)
			}
		})
	}
}

func TestDecodeScalarColumnUnknownType(t *testing.T) {
	if _, err := decodeScalarColumn([]byte{1}, "VEC3", 1); err == nil {
		t.Error("expected error for unsupported component type")
	}
}

func TestDecodePropertyTablesBadJSON(t *testing.T) {
	_, err := decodePropertyTables(json.RawMessage(`{bad`), func(int) ([]byte, error) { return nil, nil })
	if err == nil {
		t.Error("expected error for malformed metadata JSON")
	}
}
