package category

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		id       string
		expected Category
		name     string
	}{
		{"p", Prime, "prime"},
		{"f", Fibonacci, "fibonacci"},
		{"e", Even, "even"},
		{"r", Random, "random"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			c, err := Parse(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
			assert.Equal(t, tt.name, c.Name())
		})
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, id := range []string{"", "x", "P", "prime", "pp", " p"} {
		_, err := Parse(id)
		require.Error(t, err, id)
		assert.Equal(t, ErrUnknownCategory, errors.Cause(err))
	}
}

func TestAll(t *testing.T) {
	assert.Equal(t, []Category{Prime, Fibonacci, Even, Random}, All())
	assert.Equal(t, "p, f, e, r", Accepted())
	assert.Equal(t, "unknown", Category("z").Name())
}
