package render

import (
	"html/template"
	"io"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<nav>
{{- range .Board.Sections}}
<a class="nav-link{{if .Active}} active{{end}}" data-page="{{.ID}}" href="#{{.ID}}">{{.ID}}</a>
{{- end}}
</nav>
{{- range .Board.Sections}}
<section id="{{.ID}}" class="content-section{{if .Active}} active{{end}}">
{{- if eq .ID "weeks"}}
<div id="weeksContainer">
{{- range $.Board.Cards}}
<div class="week-card" data-index="{{.Index}}">
<div class="week-header">
<div class="week-number">{{.Number}}</div>
<div class="week-title-section">
<h3 class="week-title">{{.Title}}</h3>
{{- if .Subtitle}}
<p class="week-subtitle">{{.Subtitle}}</p>
{{- end}}
<span class="week-badge">{{.Badge}}</span>
</div>
<button class="edit-btn" data-index="{{.Index}}">Edit</button>
</div>
{{- if .Description}}
<p class="week-description">{{.Description}}</p>
{{- end}}
{{- if .Tags}}
<div class="week-tags">{{range .Tags}}<span class="tag">{{.}}</span>{{end}}</div>
{{- end}}
{{- if .Links}}
<div class="week-links">{{range .Links}}<a class="link-btn link-{{.Type}}" href="{{.URL}}" target="_blank" rel="noopener">{{.Text}}</a>{{end}}</div>
{{- end}}
</div>
{{- end}}
</div>
{{- end}}
</section>
{{- end}}
</body>
</html>
`))

// HTML writes the board as a complete page. All text is escaped.
func HTML(w io.Writer, title string, b Board) error {
	return pageTmpl.Execute(w, struct {
		Title string
		Board Board
	}{Title: title, Board: b})
}
