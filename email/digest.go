// Package email composes and sends the daily digest: LLM summary, full
// grouped report with new-listing badges, and top picks.
package email

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"classic-hunt/models"
)

// DigestInput is everything the digest is built from. Summary and Picks are
// the LLM artifact bodies with their headers already stripped; either may be
// empty. NewURLs holds the identity URLs from the latest diff artifact.
type DigestInput struct {
	Date       string
	ScrapeTime string
	Report     *models.Report
	Summary    string
	Picks      string
	NewURLs    map[string]bool
}

// Subject builds the digest subject line.
func Subject(in DigestInput) string {
	total := 0
	if in.Report != nil {
		total = in.Report.TotalActive
	}
	return fmt.Sprintf("Classic Hunt: %d listings - %s", total, in.Date)
}

// BuildText renders the plain-text alternative.
func BuildText(in DigestInput) string {
	var b strings.Builder
	rule := strings.Repeat("=", 50)

	fmt.Fprintf(&b, "Classic Hunt - %s\n", in.Date)
	if in.ScrapeTime != "" {
		fmt.Fprintf(&b, "Data scraped: %s\n", in.ScrapeTime)
	}
	b.WriteString(rule + "\n\n")

	if in.Summary != "" {
		b.WriteString(in.Summary + "\n\n")
		b.WriteString(rule + "\n\n")
	}

	if in.Report != nil {
		fmt.Fprintf(&b, "%d active listings\n\n", in.Report.TotalActive)
		for _, g := range in.Report.Groups {
			fmt.Fprintf(&b, "--- %s (%d) ---\n", g.Label, len(g.Lines))
			for _, l := range g.Lines {
				badge := ""
				if in.NewURLs[l.URL] {
					badge = "[NEW] "
				}
				fmt.Fprintf(&b, "  %s%s | %s | %s | %s | %s\n",
					badge, l.Price, l.Title, l.Year, l.Kilometers, lineDetails(l))
				fmt.Fprintf(&b, "  %s\n\n", l.URL)
			}
		}
	}

	if in.Picks != "" {
		b.WriteString(rule + "\n")
		b.WriteString("TOP 5 PICKS FOR YOU\n")
		b.WriteString(rule + "\n\n")
		b.WriteString(in.Picks + "\n\n")
	}

	return b.String()
}

// BuildHTML renders the HTML alternative.
func BuildHTML(in DigestInput) string {
	var b strings.Builder

	b.WriteString(htmlHead)
	fmt.Fprintf(&b, "    <h1>Classic Hunt</h1>\n    <div class=\"date\">%s</div>\n", html.EscapeString(in.Date))
	if in.ScrapeTime != "" {
		fmt.Fprintf(&b, "    <div class=\"date\">Data scraped: %s</div>\n", html.EscapeString(in.ScrapeTime))
	}

	if in.Summary != "" {
		fmt.Fprintf(&b, "    <div class=\"llm-box\">%s</div>\n",
			strings.ReplaceAll(html.EscapeString(in.Summary), "\n", "<br>"))
	}

	if in.Report != nil {
		fmt.Fprintf(&b, "    <div class=\"stats\"><strong>%d</strong> active listings</div>\n", in.Report.TotalActive)
		for _, g := range in.Report.Groups {
			fmt.Fprintf(&b, "    <div class=\"group\">\n      <div class=\"group-name\">%s <span>(%d)</span></div>\n      <table>\n",
				html.EscapeString(g.Label), len(g.Lines))
			b.WriteString("        <tr><th>Price</th><th>Car</th><th>Year</th><th>Km</th><th>Details</th></tr>\n")
			for _, l := range g.Lines {
				isNew := in.NewURLs[l.URL]
				badge := ""
				rowClass := ""
				if isNew {
					badge = `<span class="new-badge">NEW</span>`
					rowClass = ` class="new-listing"`
				}
				fmt.Fprintf(&b, "        <tr%s><td class=\"price-cell\">%s</td>"+
					"<td class=\"title-cell\">%s<a href=\"%s\">%s</a></td>"+
					"<td>%s</td><td>%s</td><td class=\"meta\">%s</td></tr>\n",
					rowClass,
					html.EscapeString(l.Price),
					badge,
					html.EscapeString(l.URL),
					html.EscapeString(l.Title),
					html.EscapeString(l.Year),
					html.EscapeString(l.Kilometers),
					html.EscapeString(lineDetails(l)))
			}
			b.WriteString("      </table>\n    </div>\n")
		}
	}

	if in.Picks != "" {
		b.WriteString("    <div class=\"picks-title\">Top 5 Picks For You</div>\n")
		fmt.Fprintf(&b, "    <div class=\"picks-box\">%s</div>\n", picksHTML(in.Picks))
	}

	b.WriteString(htmlFoot)
	return b.String()
}

// lineDetails joins the secondary fields, dropping unknowns.
func lineDetails(l models.ReportLine) string {
	var parts []string
	for _, v := range []string{l.Horsepower, l.Fuel, l.Gearbox, l.Color} {
		if v != "" && v != models.Unknown {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}

var (
	pickURLPattern  = regexp.MustCompile(`https?://\S+`)
	pickLinePattern = regexp.MustCompile(`^(\d+\.\s*)(.+?)(\s*—\s*.*)$`)
)

// picksHTML rewrites each pick line so the raw URL disappears under the car
// name link.
func picksHTML(picks string) string {
	lines := strings.Split(picks, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		url := pickURLPattern.FindString(line)
		if url == "" {
			out = append(out, html.EscapeString(line))
			continue
		}

		clean := strings.TrimRight(strings.ReplaceAll(line, url, ""), " ")
		clean = strings.TrimSuffix(clean, "—")
		clean = strings.TrimRight(clean, " ")

		if m := pickLinePattern.FindStringSubmatch(clean); m != nil {
			out = append(out, fmt.Sprintf("%s<a href=\"%s\">%s</a>%s",
				html.EscapeString(m[1]), html.EscapeString(url),
				html.EscapeString(m[2]), html.EscapeString(m[3])))
			continue
		}
		out = append(out, fmt.Sprintf("<a href=\"%s\">%s</a>",
			html.EscapeString(url), html.EscapeString(clean)))
	}

	return strings.Join(out, "<br>")
}

const htmlHead = `<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; padding: 20px; background: #f5f5f5; margin: 0; }
    .container { max-width: 700px; margin: 0 auto; background: white; border-radius: 8px; padding: 24px; }
    h1 { color: #333; font-size: 22px; margin: 0 0 4px 0; }
    .date { color: #888; font-size: 14px; margin-bottom: 16px; }
    .llm-box { background: #f0f7ff; border-left: 4px solid #0066ff; padding: 14px 16px; border-radius: 4px; margin-bottom: 24px; font-size: 14px; line-height: 1.6; color: #333; }
    .stats { color: #666; font-size: 14px; margin-bottom: 20px; }
    .group { margin-bottom: 24px; }
    .group-name { font-size: 16px; font-weight: 700; color: #222; padding: 8px 0; border-bottom: 2px solid #0066ff; margin-bottom: 8px; }
    .group-name span { font-weight: 400; color: #888; font-size: 14px; }
    table { width: 100%; border-collapse: collapse; font-size: 13px; }
    th { text-align: left; color: #888; font-weight: 500; font-size: 11px; text-transform: uppercase; padding: 6px 8px; border-bottom: 1px solid #eee; }
    td { padding: 8px; border-bottom: 1px solid #f3f3f3; color: #333; vertical-align: top; }
    .price-cell { font-weight: 600; color: #0066ff; white-space: nowrap; }
    .title-cell a { color: #333; text-decoration: none; }
    .meta { color: #888; font-size: 12px; }
    tr.new-listing td { background: #fffde7; }
    .new-badge { display: inline-block; background: #f9a825; color: #fff; font-size: 10px; font-weight: 700; padding: 1px 5px; border-radius: 3px; margin-right: 4px; vertical-align: middle; }
    .picks-title { font-size: 18px; font-weight: 700; color: #222; margin-top: 30px; padding: 8px 0; border-bottom: 2px solid #e8a000; margin-bottom: 12px; }
    .picks-box { background: #fffbf0; border-left: 4px solid #e8a000; padding: 14px 16px; border-radius: 4px; font-size: 14px; line-height: 1.8; color: #333; white-space: pre-wrap; }
  </style>
</head>
<body>
  <div class="container">
`

const htmlFoot = `  </div>
</body>
</html>
`
