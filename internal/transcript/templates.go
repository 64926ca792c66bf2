package transcript

// pageTemplate is the html/template for a transcript page.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 860px; margin: 2rem auto; color: #1f2328; line-height: 1.55; padding: 0 1rem; }
    header { border-bottom: 1px solid #d0d7de; margin-bottom: 1.5rem; }
    header p { color: #656d76; font-size: 0.85rem; }
    .entry { border: 1px solid #d0d7de; border-radius: 8px; padding: 0.75rem 1rem; margin-bottom: 1rem; }
    .entry.user { background: #f6f8fa; }
    .entry.document { background: #fffbea; }
    .meta { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; color: #656d76; }
    .sources { font-size: 0.85rem; color: #656d76; margin: 0.5rem 0 0; padding-left: 1.2rem; }
    pre { overflow-x: auto; padding: 0.75rem; border-radius: 6px; white-space: pre-wrap; }
    table { border-collapse: collapse; }
    th, td { border: 1px solid #d0d7de; padding: 0.3rem 0.6rem; }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p>Exported {{.Created}}</p>
  </header>
  {{range .Entries}}
  <section class="entry {{.Role}}">
    <div class="meta">{{.Role}}{{if .Timestamp}} &middot; {{.Timestamp}}{{end}}</div>
    {{.Content}}
    {{if .Sources}}
    <ul class="sources">
      {{range .Sources}}<li>{{.Name}} ({{.Percent}})</li>{{end}}
    </ul>
    {{end}}
  </section>
  {{end}}
</body>
</html>`
