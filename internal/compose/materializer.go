// Package compose materializes the docker-compose file and Dockerfile a
// preview deployment builds from, either normalizing a repo-owned compose
// file or generating one from per-framework/per-service templates
// (spec.md §4.5).
package compose

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/previewhost/prevd/internal/repoconfig"
)

// Materialize resolves workDir's compose file (repo-owned or generated)
// and its Dockerfile, returning the path compose -f should be invoked
// with.
func Materialize(workDir string, p Params, cfg *repoconfig.Config) (string, error) {
	if err := ResolveDockerfile(workDir, p.Framework, cfg.AppEntrypoint, cfg.AppPort, p.DBType); err != nil {
		return "", err
	}

	repoOwnedPath, err := findRepoOwnedCompose(workDir)
	if err != nil {
		return "", err
	}

	var doc map[string]any
	if repoOwnedPath != "" {
		doc, err = materializeRepoOwned(repoOwnedPath, p, cfg)
	} else {
		doc = generate(p, cfg)
	}
	if err != nil {
		return "", err
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("compose: marshal generated compose: %w", err)
	}

	outPath := filepath.Join(workDir, generatedComposeOut)
	if err := writeAtomic(outPath, out); err != nil {
		return "", err
	}
	return outPath, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "compose-*.yml.tmp")
	if err != nil {
		return fmt.Errorf("compose: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("compose: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("compose: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("compose: rename: %w", err)
	}
	return nil
}
