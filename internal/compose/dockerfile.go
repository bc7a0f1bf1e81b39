package compose

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed templates/Dockerfile.*.tmpl
var dockerfileTemplates embed.FS

type dockerfileVars struct {
	AppPort       int
	AppEntrypoint string
	DBType        string
}

// ResolveDockerfile ensures workDir/Dockerfile exists, per spec.md §4.5:
// an existing Dockerfile wins, a lowercase "dockerfile" is copied up
// (case-sensitive filesystems), otherwise the per-framework template is
// rendered and written.
func ResolveDockerfile(workDir, framework, appEntrypoint string, appPort int, dbType string) error {
	dockerfilePath := filepath.Join(workDir, "Dockerfile")
	if fileExists(dockerfilePath) {
		return nil
	}

	lowerPath := filepath.Join(workDir, "dockerfile")
	if fileExists(lowerPath) {
		data, err := os.ReadFile(lowerPath)
		if err != nil {
			return fmt.Errorf("compose: read %s: %w", lowerPath, err)
		}
		return os.WriteFile(dockerfilePath, data, 0o644)
	}

	tmplName := fmt.Sprintf("templates/Dockerfile.%s.tmpl", framework)
	raw, err := dockerfileTemplates.ReadFile(tmplName)
	if err != nil {
		return fmt.Errorf("compose: no Dockerfile template for framework %q: %w", framework, err)
	}

	tmpl, err := template.New(tmplName).Parse(string(raw))
	if err != nil {
		return fmt.Errorf("compose: parse dockerfile template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, dockerfileVars{
		AppPort:       appPort,
		AppEntrypoint: appEntrypoint,
		DBType:        dbType,
	}); err != nil {
		return fmt.Errorf("compose: render dockerfile template: %w", err)
	}

	return os.WriteFile(dockerfilePath, buf.Bytes(), 0o644)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
