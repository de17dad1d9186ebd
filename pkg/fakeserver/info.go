package fakeserver

import (
	"html/template"
	"net/http"

	"github.com/chenglch/xcat3client/pkg"
	log "github.com/sirupsen/logrus"
)

var buildInfoTemplate = template.Must(template.New("buildInfo").Parse(`
<h2>xcat3 fake service</h2>
<p>{{.Version}} <i>{{.BuildDate}}</i></p>
<table style="border: 1px solid;">
<tr>
<th>Name</th>
<th>Value</th>
</tr>
{{ range $key, $value := .BuildInfo }}
<tr>
<td>{{ $key }}</td>
<td>{{ $value }}</td>
</tr>
{{ end }}
</table>
`))

type buildContext struct {
	Version   string
	BuildDate string
	BuildInfo map[string]string
}

// BuildInformationHandler returns a page describing the running binary
func BuildInformationHandler(info map[string]string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")

		c := buildContext{
			Version:   pkg.Version,
			BuildDate: pkg.BuildDate,
			BuildInfo: info,
		}
		if err := buildInfoTemplate.Execute(w, c); err != nil {
			log.Warnf("Could not render build info page: %v", err)
		}
	}
}
