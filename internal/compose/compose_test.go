package compose

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/vms-release-bot/internal/releases"
)

var sample = releases.Release{
	Product:             "vms",
	Version:             "5.1.2.37996",
	ProtocolVersion:     5108,
	PublicationType:     "release",
	ReleaseDate:         1700000000000,
	ReleaseDeliveryDays: 30,
}

func TestBuildHTML(t *testing.T) {
	msg := BuildHTML(Input{
		Release:     sample,
		PackageURLs: []string{"https://updates.vmsproxy.com/default?a=1&b=2"},
	}, Options{
		TimeZone: "UTC",
		Now:      time.Date(2023, time.November, 17, 22, 13, 20, 0, time.UTC),
	})

	assert.Contains(t, msg, "<b>vms</b> <code>5.1.2.37996</code> [release]")
	assert.Contains(t, msg, "2023-11-14 22:13")
	assert.Contains(t, msg, "3 days ago")
	assert.Contains(t, msg, "Protocol 5108")
	assert.Contains(t, msg, "Delivery over 30 days")
	assert.Contains(t, msg, "a=1&amp;b=2")
}

func TestBuildHTMLUnreleased(t *testing.T) {
	r := sample
	r.ReleaseDate = 0
	r.Product = "<script>"

	msg := BuildHTML(Input{Release: r}, Options{TimeZone: "bogus"})
	assert.NotContains(t, msg, "📅")
	assert.Contains(t, msg, "&lt;script&gt;")
}

func TestBuildTable(t *testing.T) {
	unreleased := sample
	unreleased.Version = "6.0.0.38488"
	unreleased.ReleaseDate = 0

	table := BuildTable([]releases.Release{sample, unreleased}, Options{TimeZone: "UTC"})
	lines := strings.Split(strings.TrimSpace(table), "\n")

	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "PRODUCT"))
	assert.Contains(t, lines[1], "2023-11-14")
	assert.Contains(t, lines[2], "6.0.0.38488")
	assert.Contains(t, lines[2], " - ")
}
