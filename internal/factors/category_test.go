package factors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "materials", Materials.String())
	assert.Equal(t, "end_of_life", EndOfLife.String())
	assert.Equal(t, "Category(9)", Category(9).String())
	assert.Equal(t, "End of life", EndOfLife.Label())
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"materials", Materials, true},
		{"Materials", Materials, true},
		{" MANUFACTURING ", Manufacturing, true},
		{"Implementation", Implementation, true},
		{"transport", Transport, true},
		{"End of life", EndOfLife, true},
		{"end_of_life", EndOfLife, true},
		{"end-of-life", EndOfLife, true},
		{"Total", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
