package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadResourceFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlFile := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(yamlFile, []byte(`county: Wake
name: W-12
latitude: 35.77
notes: |
  north shoulder
`), 0600))
	data, err := LoadResourceFromFile(yamlFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"county":"Wake","name":"W-12","latitude":35.77,"notes":"north shoulder\n"}`, string(data))

	jsonFile := filepath.Join(dir, "user.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(`{"email":"ana@example.com","enabled":true}`), 0600))
	data, err = LoadResourceFromFile(jsonFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"ana@example.com","enabled":true}`, string(data))

	listFile := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(listFile, []byte("- a\n- b\n"), 0600))
	_, err = LoadResourceFromFile(listFile)
	assert.Error(t, err)

	_, err = LoadResourceFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestApplySets(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		sets     []string
		expected string
		wantErr  bool
	}{
		{
			name:     "plain string",
			sets:     []string{"role=admin"},
			expected: `{"role":"admin"}`,
		},
		{
			name:     "json scalars",
			doc:      `{"enabled":true}`,
			sets:     []string{"enabled=false", "latitude=35.5", `name="007"`},
			expected: `{"enabled":false,"latitude":35.5,"name":"007"}`,
		},
		{
			name:     "nested path",
			doc:      `{"a":{"b":1}}`,
			sets:     []string{"a.c=x y"},
			expected: `{"a":{"b":1,"c":"x y"}}`,
		},
		{
			name:     "value with equals sign",
			sets:     []string{"notes=a=b"},
			expected: `{"notes":"a=b"}`,
		},
		{
			name:    "missing equals",
			sets:    []string{"role"},
			wantErr: true,
		},
		{
			name:    "empty path",
			sets:    []string{"=x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplySets([]byte(tt.doc), tt.sets)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(got))
		})
	}
}

func TestLoadInputLayersFileOverBase(t *testing.T) {
	file := filepath.Join(t.TempDir(), "patch.yaml")
	require.NoError(t, os.WriteFile(file, []byte("role: manager\nwhich.side: right\n"), 0600))

	got, err := loadInput([]byte(`{"email":"ana@example.com","role":"user"}`), file, []string{"enabled=true"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"ana@example.com","role":"manager","which.side":"right","enabled":true}`, string(got))
}
