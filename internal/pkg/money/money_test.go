package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"৳80", "80"},
		{"৳ 40", "40"},
		{"৳1,250.50", "1250.5"},
		{"95", "95"},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got.String(), tc.in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "৳", "৳abc", "eighty"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "৳80", Format(New(80)))
	assert.Equal(t, "৳80.50", Format(MustParse("80.5")))
	assert.Equal(t, "৳0", Format(Zero))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(8000), ToMinor(New(80)))
	assert.Equal(t, int64(8051), ToMinor(MustParse("80.505")))
	assert.True(t, MustParse("80.51").Equal(FromMinor(8051)))
}

func TestMin(t *testing.T) {
	assert.True(t, New(50).Equal(Min(New(50), New(60))))
	assert.True(t, New(10).Equal(Min(New(50), New(10))))
}
