package stub

import (
	"html/template"
	"strings"
)

type statCard struct {
	Label string
	Value string
	Hint  string
}

type dashboardPage struct {
	Role     string
	Title    string
	Subtitle string
	Stats    []statCard
	Actions  []string
}

var knownPages = map[string]dashboardPage{
	"truck-owner": {
		Title:    "Dashboard",
		Subtitle: "Manage your trucks and bookings",
		Stats: []statCard{
			{Label: "Active Listings", Value: "4", Hint: "Your current empty return trips"},
			{Label: "Pending Bookings", Value: "2", Hint: "Awaiting response"},
			{Label: "Total Earnings", Value: "₹1,24,500", Hint: "This month"},
			{Label: "Completed Trips", Value: "38", Hint: "All time"},
		},
		Actions: []string{"Bookings", "Earnings", "Invoices", "Ratings"},
	},
	"shipper": {
		Title:    "Dashboard",
		Subtitle: "Manage your shipments and find trucks",
		Stats: []statCard{
			{Label: "Active Shipments", Value: "3", Hint: "Currently in progress"},
			{Label: "Completed Shipments", Value: "21", Hint: "All time"},
			{Label: "Total Spent", Value: "₹86,200", Hint: "This month"},
			{Label: "CO2 Saved", Value: "1.2 t", Hint: "Environmental impact"},
		},
		Actions: []string{"Search Trucks", "Post Requirement", "Track Shipments"},
	},
	"admin": {
		Title:    "Admin Dashboard",
		Subtitle: "Platform Health",
		Stats: []statCard{
			{Label: "Total Users", Value: "1,482", Hint: "This month"},
			{Label: "Active Trucks", Value: "312", Hint: "Currently available"},
			{Label: "Active Shipments", Value: "97", Hint: "Currently in transit"},
			{Label: "Match Rate", Value: "84%", Hint: "Successful matches"},
		},
		Actions: []string{"Manage Users", "Verifications", "Analytics"},
	},
}

// pageFor returns the content for role, falling back to a generic layout for roles
// configured without a dedicated page.
func pageFor(role string) dashboardPage {
	if p, ok := knownPages[role]; ok {
		p.Role = role
		return p
	}
	words := strings.Fields(strings.ReplaceAll(role, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return dashboardPage{
		Role:     role,
		Title:    strings.Join(words, " ") + " Dashboard",
		Subtitle: "Overview",
		Stats:    []statCard{{Label: "Items", Value: "0", Hint: "All time"}},
	}
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · {{.Role}}</title>
<style>
body{margin:0;font-family:-apple-system,Helvetica,Arial,sans-serif;background:#f4f5f7;color:#111}
header{background:#1d4ed8;color:#fff;padding:16px}
header h1{margin:0;font-size:20px}
header p{margin:4px 0 0;opacity:.85;font-size:14px}
main{padding:12px;display:grid;grid-template-columns:repeat(auto-fill,minmax(160px,1fr));gap:12px}
.card{background:#fff;border-radius:8px;padding:12px;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.card .label{font-size:12px;color:#555}
.card .value{font-size:22px;font-weight:600;margin:6px 0}
.card .hint{font-size:11px;color:#888}
nav{padding:0 12px 16px}
nav a{display:block;background:#fff;margin-top:8px;padding:12px;border-radius:8px;color:#1d4ed8;text-decoration:none}
</style>
</head>
<body data-role="{{.Role}}">
<header><h1>{{.Title}}</h1><p>{{.Subtitle}}</p></header>
<main>
{{range .Stats}}<div class="card"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div><div class="hint">{{.Hint}}</div></div>
{{end}}</main>
{{if .Actions}}<nav><h2>Quick Actions</h2>{{range .Actions}}<a href="#">{{.}}</a>{{end}}</nav>{{end}}
<script>
(function () {
  var body = JSON.stringify({
    role: document.body.dataset.role,
    path: location.pathname,
    width: window.innerWidth,
    height: window.innerHeight,
    device_pixel_ratio: window.devicePixelRatio || 1,
    touch: navigator.maxTouchPoints > 0,
    user_agent: navigator.userAgent
  });
  fetch("/api/v1/viewport", {method: "POST", keepalive: true, headers: {"Content-Type": "application/json"}, body: body});
})();
</script>
</body>
</html>
`))

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Dashboards</title></head>
<body>
<h1>Dashboards</h1>
<ul>{{range .}}<li><a href="/dashboard/{{.}}">{{.}}</a></li>{{end}}</ul>
</body>
</html>
`))
