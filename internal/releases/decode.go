package releases

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

var (
	// ErrMalformedFeed marks a body that is not JSON or does not fit the feed shape
	ErrMalformedFeed = errors.New("malformed release feed")
	// ErrNoReleases marks a feed that parsed but carries no release entries
	ErrNoReleases = errors.New("release feed has no releases")
)

// DecoderConfig is the feed decoder. Unknown fields are ignored, numbers are
// kept as int64 so millisecond dates do not lose precision.
var DecoderConfig = sonic.Config{
	UseInt64:       true,
	ValidateString: true,
}.Froze()

// ParseError wraps the JSON layer failure and matches ErrMalformedFeed
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMalformedFeed, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrMalformedFeed }

type wireDocument struct {
	PackagesURLs []string      `json:"packages_urls"`
	Releases     []wireRelease `json:"releases"`
}

type wireRelease struct {
	Product             string      `json:"product"`
	Version             string      `json:"version"`
	ProtocolVersion     nullableInt `json:"protocol_version"`
	PublicationType     string      `json:"publication_type"`
	ReleaseDate         nullableInt `json:"release_date"`
	ReleaseDeliveryDays nullableInt `json:"release_delivery_days"`
}

// nullableInt accepts a JSON number, a quoted number, null, or absence.
// The feed sends release_date as a quoted string on some products.
type nullableInt struct {
	value int64
	valid bool
}

func (n *nullableInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = nullableInt{}
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return fmt.Errorf("invalid quoted number %s: %w", text, err)
		}
		if unquoted == "" {
			*n = nullableInt{}
			return nil
		}
		text = unquoted
	}

	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// whole-valued floats such as 1e3 or 30.0 are accepted
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return fmt.Errorf("invalid integer %s: %w", text, err)
		}
		v = int64(f)
	}
	*n = nullableInt{value: v, valid: true}
	return nil
}

// int32OrZero is orZero for fields that are 32-bit in the feed schema
func (n nullableInt) int32OrZero(field string) (int, error) {
	v := n.orZero()
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%s %d out of 32-bit range", field, v)
	}
	return int(v), nil
}

// orZero is the one place missing and null numerics become 0
func (n nullableInt) orZero() int64 {
	if !n.valid {
		return 0
	}
	return n.value
}

// Decode parses a feed body with the given decoder configuration.
// It does not check that releases are present, see Validate.
func Decode(api sonic.API, body []byte) (*Document, error) {
	var wire wireDocument
	if err := api.Unmarshal(body, &wire); err != nil {
		return nil, &ParseError{Err: err}
	}

	doc := &Document{
		PackageURLs: wire.PackagesURLs,
	}
	if wire.Releases != nil {
		doc.Releases = make([]Release, 0, len(wire.Releases))
	}
	for _, w := range wire.Releases {
		protocolVersion, err := w.ProtocolVersion.int32OrZero("protocol_version")
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		deliveryDays, err := w.ReleaseDeliveryDays.int32OrZero("release_delivery_days")
		if err != nil {
			return nil, &ParseError{Err: err}
		}

		doc.Releases = append(doc.Releases, Release{
			Product:             w.Product,
			Version:             w.Version,
			ProtocolVersion:     protocolVersion,
			PublicationType:     w.PublicationType,
			ReleaseDate:         w.ReleaseDate.orZero(),
			ReleaseDeliveryDays: deliveryDays,
		})
	}

	return doc, nil
}

// Validate checks that a decoded document carries at least one release
func Validate(doc *Document) error {
	if doc == nil || len(doc.Releases) == 0 {
		return ErrNoReleases
	}
	return nil
}
