package httpapi

// openAPIDocument is a minimal, hand-maintained description of the
// daemon's HTTP surface, served at GET /openapi.json.
var openAPIDocument = map[string]any{
	"openapi": "3.0.3",
	"info": map[string]any{
		"title":   "prevd",
		"version": "1.0.0",
	},
	"paths": map[string]any{
		"/health": map[string]any{
			"get": map[string]any{"summary": "Liveness check"},
		},
		"/webhook/github": map[string]any{
			"post": map[string]any{"summary": "GitHub pull_request webhook receiver"},
		},
		"/api/previews": map[string]any{
			"get": map[string]any{"summary": "List all tracked preview deployments"},
		},
		"/api/previews/{deploymentId}": map[string]any{
			"get":    map[string]any{"summary": "Fetch one preview deployment"},
			"delete": map[string]any{"summary": "Tear down a preview deployment"},
		},
		"/api/previews/{deploymentId}/logs/stream": map[string]any{
			"get": map[string]any{"summary": "Upgrade to a WebSocket streaming deploy/build progress lines"},
		},
	},
}

const apiDocsHTML = `<!doctype html>
<html>
<head><title>prevd API docs</title></head>
<body>
<h1>prevd</h1>
<p>See <a href="/openapi.json">/openapi.json</a> for the machine-readable API description.</p>
</body>
</html>
`
