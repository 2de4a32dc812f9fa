// Package swagger serves the check-in service's OpenAPI document.
package swagger

import (
	"context"
	"net/http"
)

// Register attaches the documentation routes to mux.
//
//	GET /api-docs      -> HTML page rendering the document
//	GET /openapi.yaml  -> embedded OpenAPI document
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/api-docs", ServeDocs)
	mux.HandleFunc("/openapi.yaml", ServeSpec)
}

// ServeSpec writes the OpenAPI document.
func ServeSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(OpenAPI)
}

// ServeDocs writes a page that shows the OpenAPI document. It needs no
// external assets so it works on an offline event network.
func ServeDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Check-in API</title>
    <style>body{margin:0;padding:1rem;font-family:sans-serif}pre{background:#f4f4f4;padding:1rem}</style>
  </head>
  <body>
    <h1>Check-in API</h1>
    <p><a href="/openapi.yaml">openapi.yaml</a></p>
    <pre id="spec">loading...</pre>
    <script>fetch('/openapi.yaml').then(r => r.text()).then(t => { document.getElementById('spec').textContent = t; });</script>
  </body>
</html>`
