package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMetadata(t *testing.T) {
	md, err := ReadMetadata([]byte("label: class\nfeatures:\n  - age\n  - amount\n"))
	require.NoError(t, err)
	assert.Equal(t, "class", md.Label)
	assert.Equal(t, []string{"age", "amount"}, md.Features)
}

func TestReadMetadata_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"Malformed", "features: [age"},
		{"NoFeatures", "label: class\n"},
		{"NoLabel", "features: [age]\n"},
		{"DuplicateFeature", "label: class\nfeatures: [age, age]\n"},
		{"LabelIsFeature", "label: age\nfeatures: [age, amount]\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadMetadata([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestReadMetadataFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.yml")
	require.NoError(t, os.WriteFile(path, []byte("label: class\nfeatures: [a, b, c]\n"), 0o600))
	md, err := ReadMetadataFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, md.Features)

	_, err = ReadMetadataFromFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
