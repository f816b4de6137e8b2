package releases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeOne(t *testing.T, release string) Release {
	t.Helper()

	doc, err := Decode(DecoderConfig, []byte(`{"releases": [`+release+`]}`))
	require.NoError(t, err)
	require.NoError(t, Validate(doc))
	require.Len(t, doc.Releases, 1)
	return doc.Releases[0]
}

func TestIsReleasedMissingReleaseDate(t *testing.T) {
	for _, release := range []string{
		`{"version": "5.1.0.1"}`,
		`{"version": "5.1.0.1", "release_date": null, "release_delivery_days": 30}`,
		`{"version": "5.1.0.1", "release_date": "", "release_delivery_days": -1}`,
		`{"version": "5.1.0.1", "release_delivery_days": 0}`,
	} {
		r := decodeOne(t, release)
		assert.Equal(t, int64(0), r.ReleaseDate, release)
		assert.False(t, r.IsReleased(), release)
		assert.True(t, r.ReleasedAt().IsZero(), release)
	}
}

// Missing delivery days decode to 0, which always passes the >= 0 half.
func TestIsReleasedDeliveryDaysDefault(t *testing.T) {
	r := decodeOne(t, `{"version": "5.1.0.1", "release_date": 1700000000000}`)
	assert.Equal(t, 0, r.ReleaseDeliveryDays)
	assert.True(t, r.IsReleased())
	assert.Equal(t, time.Date(2023, time.November, 14, 22, 13, 20, 0, time.UTC), r.ReleasedAt())
}

func TestIsReleasedNegativeDeliveryDays(t *testing.T) {
	r := Release{ReleaseDate: 1700000000000, ReleaseDeliveryDays: -1}
	assert.False(t, r.IsReleased())
}

func TestDecodeQuotedNumbers(t *testing.T) {
	r := decodeOne(t, `{"protocol_version": "5108", "release_date": "1700000000000", "release_delivery_days": "14"}`)
	assert.Equal(t, 5108, r.ProtocolVersion)
	assert.Equal(t, int64(1700000000000), r.ReleaseDate)
	assert.Equal(t, 14, r.ReleaseDeliveryDays)
}

func TestDecodeWholeValuedFloats(t *testing.T) {
	r := decodeOne(t, `{"protocol_version": 5108.0, "release_date": 1.7e12, "release_delivery_days": "1e1"}`)
	assert.Equal(t, 5108, r.ProtocolVersion)
	assert.Equal(t, int64(1700000000000), r.ReleaseDate)
	assert.Equal(t, 10, r.ReleaseDeliveryDays)
}

func TestDecodeRejectsFractionalNumbers(t *testing.T) {
	_, err := Decode(DecoderConfig, []byte(`{"releases": [{"release_delivery_days": 1.5}]}`))
	assert.ErrorIs(t, err, ErrMalformedFeed)
}

func TestDecodeRejects32BitOverflow(t *testing.T) {
	for _, release := range []string{
		`{"protocol_version": 2147483648}`,
		`{"release_delivery_days": -2147483649}`,
	} {
		_, err := Decode(DecoderConfig, []byte(`{"releases": [`+release+`]}`))
		assert.ErrorIs(t, err, ErrMalformedFeed, release)
	}

	r := decodeOne(t, `{"protocol_version": 2147483647, "release_date": 4102444800000}`)
	assert.Equal(t, 2147483647, r.ProtocolVersion)
	assert.Equal(t, int64(4102444800000), r.ReleaseDate)
}

func TestDecodeRejectsNonNumericDate(t *testing.T) {
	_, err := Decode(DecoderConfig, []byte(`{"releases": [{"release_date": "tomorrow"}]}`))
	assert.ErrorIs(t, err, ErrMalformedFeed)
}

func TestDecodePreservesOrder(t *testing.T) {
	doc, err := Decode(DecoderConfig, []byte(`{
		"packages_urls": ["c", "a", "b"],
		"releases": [{"version": "3"}, {"version": "1"}, {"version": "2"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, doc.PackageURLs)

	var versions []string
	for _, r := range doc.Releases {
		versions = append(versions, r.Version)
	}
	assert.Equal(t, []string{"3", "1", "2"}, versions)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate(nil), ErrNoReleases)
	assert.ErrorIs(t, Validate(&Document{}), ErrNoReleases)
	assert.ErrorIs(t, Validate(&Document{Releases: []Release{}}), ErrNoReleases)
	assert.NoError(t, Validate(&Document{Releases: []Release{{}}}))
}

func TestReleased(t *testing.T) {
	rs := []Release{
		{Version: "1", ReleaseDate: 1},
		{Version: "2"},
		{Version: "3", ReleaseDate: 3},
	}
	got := Released(rs)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Version)
	assert.Equal(t, "3", got[1].Version)
}
