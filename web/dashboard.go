// Package web renders the HTML dashboard and serves it together with the
// report archive.
package web

import (
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"classic-hunt/models"
	"classic-hunt/services"
)

// dashboardCard is one listing card on the dashboard.
type dashboardCard struct {
	Record *models.ListingRecord
	IsNew  bool
}

// dashboardGroup is one model section on the dashboard.
type dashboardGroup struct {
	Label string
	Cards []dashboardCard
}

// RenderDashboard builds the dashboard HTML from every persisted record set:
// active listings only, sorted by ascending parsed price, with listings
// first seen within newListingDays highlighted.
func RenderDashboard(sets map[models.ModelKey]models.RecordSet, newListingDays int, now time.Time) (string, error) {
	keys := make([]models.ModelKey, 0, len(sets))
	for key := range sets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Label() < keys[j].Label() })

	cutoff := now.Add(-time.Duration(newListingDays) * 24 * time.Hour)

	groups := make([]dashboardGroup, 0, len(keys))
	for _, key := range keys {
		active := sets[key].Active()
		sort.SliceStable(active, func(i, j int) bool {
			pi, iok := services.ParsePrice(active[i].Price)
			pj, jok := services.ParsePrice(active[j].Price)
			if iok != jok {
				return iok
			}
			return pi < pj
		})

		cards := make([]dashboardCard, 0, len(active))
		for _, rec := range active {
			cards = append(cards, dashboardCard{
				Record: rec,
				IsNew:  rec.FirstSeen.After(cutoff),
			})
		}
		groups = append(groups, dashboardGroup{Label: key.Label(), Cards: cards})
	}

	var b strings.Builder
	if err := dashboardTmpl.Execute(&b, groups); err != nil {
		return "", fmt.Errorf("dashboard: render: %w", err)
	}
	return b.String(), nil
}

// WriteDashboard renders the dashboard and writes it to path.
func WriteDashboard(path string, sets map[models.ModelKey]models.RecordSet, newListingDays int, now time.Time) error {
	html, err := RenderDashboard(sets, newListingDays, now)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return fmt.Errorf("dashboard: write %s: %w", path, err)
	}
	return nil
}

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"plural": func(n int) string {
		if n == 1 {
			return ""
		}
		return "s"
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Classic Hunt</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; background: #fafafa; padding: 30px 20px; line-height: 1.6; }
    .container { max-width: 1400px; margin: 0 auto; }
    .brand-section { margin-bottom: 50px; }
    .brand-header { color: #333; padding: 0 0 16px 0; border-bottom: 1px solid #e0e0e0; font-size: 1.1em; font-weight: 500; letter-spacing: 0.3px; }
    .cars-grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(180px, 1fr)); gap: 16px; padding: 20px 0; }
    .car-card { border: 1px solid #f0f0f0; border-radius: 8px; overflow: hidden; background: white; display: flex; flex-direction: column; box-shadow: 0 1px 3px rgba(0,0,0,0.04); }
    .car-card.new-listing { background: #fffde7; border-color: #fff59d; }
    .car-card:hover { transform: translateY(-3px); box-shadow: 0 4px 12px rgba(0,0,0,0.08); border-color: #e0e0e0; }
    .car-image { display: block; background: #f8f8f8; align-self: center; margin: 12px; }
    .car-content { padding: 0 12px 12px 12px; }
    .car-title { font-size: 0.8em; font-weight: 500; color: #1a1a1a; margin-bottom: 10px; line-height: 1.4; }
    .car-info { display: flex; flex-direction: column; gap: 6px; }
    .info-row { display: flex; justify-content: space-between; font-size: 0.7em; padding: 3px 0; }
    .info-label { color: #999; text-transform: uppercase; font-size: 0.9em; letter-spacing: 0.3px; }
    .info-value { color: #333; font-weight: 500; }
    .price { color: #0066ff; font-size: 1em; font-weight: 600; }
    .car-title-link { text-decoration: none; color: inherit; display: block; }
    .car-title-link:hover .car-title { color: #0066ff; }
    .no-results { padding: 40px; text-align: center; color: #999; font-size: 0.9em; }
  </style>
</head>
<body>
  <div class="container">
{{- range . }}
    <div class="brand-section">
      <div class="brand-header">{{ .Label }} <span style="opacity: 0.7; font-size: 0.85em;">({{ len .Cards }} listing{{ plural (len .Cards) }})</span></div>
{{- if .Cards }}
      <div class="cars-grid">
{{- range .Cards }}
        <div class="car-card{{ if .IsNew }} new-listing{{ end }}">
{{- if ne .Record.ImageURL "N/A" }}
          <a href="{{ .Record.Link }}" target="_blank"><img src="{{ .Record.ImageURL }}" alt="{{ .Record.Title }}" class="car-image"></a>
{{- end }}
          <div class="car-content">
            <a href="{{ .Record.Link }}" target="_blank" class="car-title-link"><div class="car-title">{{ .Record.Title }}</div></a>
            <div class="car-info">
              <div class="info-row"><span class="info-label">Price:</span><span class="info-value price">{{ .Record.Price }}</span></div>
              <div class="info-row"><span class="info-label">Year:</span><span class="info-value">{{ .Record.Year }}</span></div>
              <div class="info-row"><span class="info-label">Kilometers:</span><span class="info-value">{{ .Record.Kilometers }}</span></div>
              <div class="info-row"><span class="info-label">Gearbox:</span><span class="info-value">{{ .Record.Gearbox }}</span></div>
            </div>
          </div>
        </div>
{{- end }}
      </div>
{{- else }}
      <div class="no-results">No results found</div>
{{- end }}
    </div>
{{- end }}
  </div>
</body>
</html>
`))
