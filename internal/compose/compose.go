package compose

import (
	"fmt"
	"html"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/yourorg/vms-release-bot/internal/releases"
)

// Options for composing messages
type Options struct {
	TimeZone string
	Now      time.Time // for humanized ages, time.Now() when zero
}

// Input data for composing a release message
type Input struct {
	Release     releases.Release
	PackageURLs []string
}

// BuildHTML creates an HTML-formatted message for Telegram
func BuildHTML(in Input, opt Options) string {
	loc, _ := time.LoadLocation(opt.TimeZone)
	if loc == nil {
		loc = time.UTC
	}
	now := opt.Now
	if now.IsZero() {
		now = time.Now()
	}

	r := in.Release
	var sb strings.Builder
	sb.WriteString("🚀 <b>")
	sb.WriteString(html.EscapeString(r.Product))
	sb.WriteString("</b> <code>")
	sb.WriteString(html.EscapeString(r.Version))
	sb.WriteString("</code>")
	if r.PublicationType != "" {
		sb.WriteString(" [" + html.EscapeString(r.PublicationType) + "]")
	}
	sb.WriteString("\n")

	if published := r.ReleasedAt(); !published.IsZero() {
		sb.WriteString("📅 " + published.In(loc).Format("2006-01-02 15:04"))
		sb.WriteString(" (" + humanize.RelTime(published, now, "ago", "from now") + ")\n")
	}
	if r.ProtocolVersion != 0 {
		sb.WriteString(fmt.Sprintf("🔌 Protocol %d\n", r.ProtocolVersion))
	}
	if r.ReleaseDeliveryDays > 0 {
		sb.WriteString(fmt.Sprintf("🚚 Delivery over %d days\n", r.ReleaseDeliveryDays))
	}

	if len(in.PackageURLs) > 0 {
		sb.WriteString("\n")
		for _, u := range in.PackageURLs {
			sb.WriteString(`<a href="` + html.EscapeString(u) + `">📦 ` + html.EscapeString(u) + "</a>\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// BuildTable renders releases as an aligned plain text table, in the given order
func BuildTable(rs []releases.Release, opt Options) string {
	loc, _ := time.LoadLocation(opt.TimeZone)
	if loc == nil {
		loc = time.UTC
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tVERSION\tTYPE\tPROTOCOL\tRELEASED\tDELIVERY DAYS")
	for _, r := range rs {
		released := "-"
		if r.IsReleased() {
			released = r.ReleasedAt().In(loc).Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Product, r.Version, r.PublicationType, r.ProtocolVersion, released, humanize.Comma(int64(r.ReleaseDeliveryDays)))
	}
	w.Flush()

	return sb.String()
}
