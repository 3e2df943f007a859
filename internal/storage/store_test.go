package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

// mockStoreSpec implements ValidatingSpec for testing LoadFile
type mockStoreSpec struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

func (s *mockStoreSpec) Validate() error {
	if s.Value < 0 {
		return fmt.Errorf("value must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	tests := map[string]struct {
		file     string
		contents string
		expName  string
		expValue int
		expErr   string
	}{
		"json document": {
			file:     "doc.json",
			contents: `{"name": "First", "value": 1}`,
			expName:  "First",
			expValue: 1,
		},
		"yaml document": {
			file:     "doc.yaml",
			contents: "name: Second\nvalue: 2\n",
			expName:  "Second",
			expValue: 2,
		},
		"yml extension": {
			file:     "doc.yml",
			contents: "name: Third\nvalue: 3\n",
			expName:  "Third",
			expValue: 3,
		},
		"invalid json": {
			file:     "bad.json",
			contents: `{invalid json`,
			expErr:   "unmarshalling document",
		},
		"validation error": {
			file:     "neg.json",
			contents: `{"name": "Neg", "value": -1}`,
			expErr:   "value must not be negative",
		},
		"null document": {
			file:     "null.json",
			contents: `null`,
			expErr:   "document is empty",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.contents)

			spec, err := LoadFile[*mockStoreSpec](path)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testutil.AssertEqual(t, "name", spec.Name, tt.expName)
			testutil.AssertEqual(t, "value", spec.Value, tt.expValue)
		})
	}
}

func TestLoadFile_NonExistent(t *testing.T) {
	_, err := LoadFile[*mockStoreSpec]("/nonexistent/path/world.json")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestDecode_Reader(t *testing.T) {
	spec, err := Decode[*mockStoreSpec](strings.NewReader(`{"name":"x","value":4}`), FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "value", spec.Value, 4)
}

func TestIdentifier_Valid(t *testing.T) {
	tests := map[string]struct {
		id  Identifier
		exp bool
	}{
		"simple":      {id: "armory", exp: true},
		"dash":        {id: "north-hall", exp: true},
		"underscore":  {id: "north_hall", exp: true},
		"empty":       {id: "", exp: false},
		"space":       {id: "north hall", exp: false},
		"punctuation": {id: "hall!", exp: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "valid", tt.id.Valid(), tt.exp)
		})
	}
}
