package releases

import "time"

// Document is the parsed releases.json feed of one product
type Document struct {
	PackageURLs []string
	Releases    []Release
}

// Release describes one shipped version in the feed
type Release struct {
	Product             string
	Version             string
	ProtocolVersion     int
	PublicationType     string
	ReleaseDate         int64 // Unix milliseconds, 0 when unpublished
	ReleaseDeliveryDays int
}

// IsReleased reports whether the release has been published.
//
// Missing or null fields decode to 0, so the delivery-days half of the check
// can never be false for a decoded record. Kept as-is until the intended
// semantics (a delivery deadline?) are confirmed with the feed owner.
func (r Release) IsReleased() bool {
	return r.ReleaseDate > 0 && r.ReleaseDeliveryDays >= 0
}

// ReleasedAt returns the publication time, or the zero time when unpublished
func (r Release) ReleasedAt() time.Time {
	if r.ReleaseDate <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.ReleaseDate).UTC()
}

// Released filters releases by IsReleased, keeping feed order
func Released(rs []Release) []Release {
	var out []Release
	for _, r := range rs {
		if r.IsReleased() {
			out = append(out, r)
		}
	}
	return out
}
