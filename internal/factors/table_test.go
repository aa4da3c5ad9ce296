package factors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	table := Default()
	require.NotNil(t, table)
	assert.Same(t, table, Default(), "default table should be parsed once")
	assert.Equal(t, "1.2.0", table.Version())

	for _, c := range All() {
		assert.NotEmpty(t, table.Entries(c), "category %s should have entries", c)
	}
	assert.NotEmpty(t, table.ConcreteTypes())
	assert.NotEmpty(t, table.RebarGrades())

	_, ok := table.Lookup(Materials, ConcreteMaterial)
	assert.True(t, ok, "Concrete must be selectable as a material")
}

func TestTable_Lookup(t *testing.T) {
	table := Default()

	tests := []struct {
		name     string
		category Category
		item     string
		want     float64
		wantOK   bool
	}{
		{"material", Materials, "Steel (Virgin)", 2.0, true},
		{"manufacturing", Manufacturing, "Welding", 7.5, true},
		{"implementation", Implementation, "Crane lifting", 18.0, true},
		{"transport", Transport, "Road (Diesel truck)", 0.1, true},
		{"end of life credit", EndOfLife, "Recycling (Metals)", -1.8, true},
		{"surrounding spaces trimmed", Transport, "  Rail ", 0.02, true},
		{"unknown name", Materials, "Unobtainium", 0, false},
		{"empty name", Materials, "", 0, false},
		{"name from another category", Transport, "Welding", 0, false},
		{"invalid category", Category(42), "Welding", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := table.Lookup(tt.category, tt.item)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, e.Factor, 1e-12)
			assert.InDelta(t, tt.want, table.FactorOf(tt.category, tt.item), 1e-12)
		})
	}
}

func TestTable_ConcreteAndRebar(t *testing.T) {
	table := Default()

	f, ok := table.ConcreteFactor("CEM III/B")
	require.True(t, ok)
	assert.InDelta(t, 0.313, f, 1e-12)
	assert.True(t, table.IsConcreteType("CEM I (Portland)"))
	assert.False(t, table.IsConcreteType("Concrete"))

	r, ok := table.RebarFactor("Standard rebar")
	require.True(t, ok)
	assert.InDelta(t, 1.2, r, 1e-12)

	grade, ok := table.RebarGradeFor(1.2, 0.005)
	require.True(t, ok)
	assert.Equal(t, "Standard rebar", grade)

	_, ok = table.RebarGradeFor(9.9, 0.005)
	assert.False(t, ok)
}

func TestTable_EntriesAreCopies(t *testing.T) {
	table := Default()
	entries := table.Entries(Materials)
	entries[0].Factor = 999

	assert.NotEqual(t, 999.0, table.Entries(Materials)[0].Factor)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "missing version",
			yaml:    "materials: []\n",
			wantErr: ErrIncompatibleVersion,
		},
		{
			name:    "unsupported major version",
			yaml:    "version: \"2.0.0\"\n",
			wantErr: ErrIncompatibleVersion,
		},
		{
			name:    "garbage version",
			yaml:    "version: \"latest\"\n",
			wantErr: ErrIncompatibleVersion,
		},
		{
			name: "duplicate name",
			yaml: `version: "1.0.0"
transport:
  - { name: Rail, factor: 0.02, unit: x }
  - { name: Rail, factor: 0.03, unit: x }
`,
			wantErr: ErrDuplicateEntry,
		},
		{
			name: "empty name",
			yaml: `version: "1.0.0"
rebar:
  - { name: "  ", factor: 1.0, unit: x }
`,
			wantErr: ErrEmptyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("version: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing factor table")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1.0.3"
materials:
  - { name: Hemp, factor: -0.4, unit: "kg CO2e/kg" }
`), 0o600))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.3", table.Version())
	assert.InDelta(t, -0.4, table.FactorOf(Materials, "Hemp"), 1e-12)
	assert.Empty(t, table.Entries(Transport))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
