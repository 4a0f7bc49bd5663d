package export

import (
	"bytes"
	"html/template"
)

var letterTemplate = template.Must(template.New("letter").Funcs(template.FuncMap{
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
}).Parse(letterShell))

// LetterData holds the pieces of a rendered letter.
type LetterData struct {
	Title    string
	BodyHTML string
}

// RenderLetterHTML wraps substituted template HTML in the print shell so
// the PDF matches what the preview shows.
func RenderLetterHTML(data LetterData) (string, error) {
	var buf bytes.Buffer
	if err := letterTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const letterShell = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Georgia, 'Times New Roman', serif; line-height: 1.5; max-width: 720px; margin: 2rem auto; color: #111; }
    p { margin: 0 0 0.4rem; }
  </style>
</head>
<body>
{{.BodyHTML | safeHTML}}
</body>
</html>`
