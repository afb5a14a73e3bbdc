package viewer

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Paresthesia thresholds</title>
<style>body{font-family:sans-serif;margin:24px} label{margin-right:16px}</style></head>
<body>
<form method="get" action="/">
<label>Subject <select name="subject" onchange="this.form.submit()">
{{range .Subjects}}<option{{if eq . $.Subject}} selected{{end}}>{{.}}</option>{{end}}
</select></label>
<label>Visit <select name="visit" onchange="this.form.submit()">
{{range .Visits}}<option{{if eq . $.Visit}} selected{{end}}>{{.}}</option>{{end}}
</select></label>
<label>Color <select name="color" onchange="this.form.submit()">
<option value="severity"{{if eq .Color "severity"}} selected{{end}}>severity</option>
<option value="body_part"{{if eq .Color "body_part"}} selected{{end}}>body part</option>
</select></label>
<noscript><button type="submit">Show</button></noscript>
</form>
{{if .Subject}}<p><img alt="chart" src="/chart.svg?subject={{.Subject}}&amp;visit={{.Visit}}&amp;color={{.Color}}"></p>{{end}}
</body></html>
`))

type indexData struct {
	Subjects []string
	Visits   []string
	Subject  string
	Visit    string
	Color    string
}

// Handler serves the selection page, the chart and two JSON endpoints.
// Every request re-renders from the immutable table.
func (v *Viewer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", v.serveIndex)
	mux.HandleFunc("GET /chart.svg", v.serveChart)
	mux.HandleFunc("GET /api/points", v.servePoints)
	mux.HandleFunc("GET /api/subjects", v.serveSubjects)
	return mux
}

func (v *Viewer) serveIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d := indexData{
		Subjects: v.subjects,
		Visits:   v.visits,
		Subject:  q.Get("subject"),
		Visit:    q.Get("visit"),
		Color:    q.Get("color"),
	}
	if d.Subject == "" && len(v.subjects) > 0 {
		d.Subject = v.subjects[0]
	}
	if d.Visit == "" && len(v.visits) > 0 {
		d.Visit = v.visits[0]
	}
	if d.Color == "" {
		d.Color = string(ColorSeverity)
	}
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func selection(r *http.Request) (subject, visit string, ok bool) {
	q := r.URL.Query()
	subject, visit = q.Get("subject"), q.Get("visit")
	return subject, visit, subject != "" && visit != ""
}

func (v *Viewer) serveChart(w http.ResponseWriter, r *http.Request) {
	subject, visit, ok := selection(r)
	if !ok {
		http.Error(w, "subject and visit are required", http.StatusBadRequest)
		return
	}
	by, err := ParseColorBy(r.URL.Query().Get("color"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	if err := v.RenderSVG(&buf, subject, visit, by); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(buf.Bytes())
}

func (v *Viewer) servePoints(w http.ResponseWriter, r *http.Request) {
	subject, visit, ok := selection(r)
	if !ok {
		http.Error(w, "subject and visit are required", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{
		"buckets": v.BucketOrder(),
		"points":  v.Points(subject, visit),
	})
}

func (v *Viewer) serveSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"subjects": v.Subjects(),
		"visits":   v.Visits(),
		"devices":  v.Devices(),
	})
}

func writeJSON(w http.ResponseWriter, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
