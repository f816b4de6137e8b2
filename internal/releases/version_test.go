package releases

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"5.1.2.37996", "5.1.2.37996", 0},
		{"5.1.2.37996", "5.1.2.38000", -1},
		{"5.1.3.1", "5.1.2.99999", 1},
		{"6.0.0.38488", "5.1.2.37996", 1},
		{"5.1", "5.1.0.0", 0},
		{"5.10.0.1", "5.9.0.1", 1},
		{"garbage", "5.1.0.1", -1},
		{"5.1.0.1", "garbage", 1},
		{"5.1.0.x", "5.1.0.1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
		})
	}
}

func TestLatest(t *testing.T) {
	rs := []Release{
		{Version: "5.1.2.37996", PublicationType: "release", ReleaseDate: 1},
		{Version: "6.0.0.38488", PublicationType: "beta", ReleaseDate: 2},
		{Version: "5.1.3.38363", PublicationType: "release", ReleaseDate: 3},
		{Version: "6.1.0.40000", PublicationType: "release"},
	}

	got, ok := Latest(rs, "release")
	assert.True(t, ok)
	assert.Equal(t, "5.1.3.38363", got.Version)

	got, ok = Latest(rs, "")
	assert.True(t, ok)
	assert.Equal(t, "6.0.0.38488", got.Version)

	_, ok = Latest(rs, "rc")
	assert.False(t, ok)
}
