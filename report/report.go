// Package report renders model output, which is usually markdown, as
// sanitized HTML.
package report

import (
	"html/template"
	"io"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy().AddTargetBlankToFullyQualifiedLinks(true)

// RenderHTML converts markdown to HTML and strips anything unsafe, such as
// scripts and event handlers.
func RenderHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(sanitizer.SanitizeBytes(markdown.Render(doc, renderer)))
}

// Section is one titled block of a Page.
type Section struct {
	Heading  string
	Markdown string
}

// Page is a standalone HTML report.
type Page struct {
	Title    string
	Sections []Section
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Sections}}<section>
<h2>{{.Heading}}</h2>
{{.Body}}
</section>
{{end}}</body>
</html>
`))

type renderedSection struct {
	Heading string
	Body    template.HTML
}

// Write renders p as an HTML document to w.
func (p Page) Write(w io.Writer) error {
	sections := make([]renderedSection, len(p.Sections))
	for i, s := range p.Sections {
		sections[i] = renderedSection{
			Heading: s.Heading,
			Body:    template.HTML(RenderHTML(s.Markdown)), // #nosec G203 -- sanitized by RenderHTML
		}
	}
	return pageTemplate.Execute(w, struct {
		Title    string
		Sections []renderedSection
	}{p.Title, sections})
}
