// Package framework resolves which application framework a cloned repo
// uses, for Dockerfile and compose templating (spec.md §4.3).
package framework

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const (
	NestJS  = "nestjs"
	Go      = "go"
	Laravel = "laravel"
	Rust    = "rust"
	Python  = "python"

	// defaultFramework is returned when config is silent and no detector
	// matches.
	defaultFramework = NestJS
)

// Resolve returns the framework for a cloned repo at workDir. configFramework
// is the value from preview-config.yml's framework field, if any; when
// non-empty it always wins over detection. Otherwise the ordered detectors
// run and the first match is returned; if none match, defaultFramework.
func Resolve(workDir, configFramework string) string {
	if configFramework != "" {
		return configFramework
	}
	if isNestJS(workDir) {
		return NestJS
	}
	if isGo(workDir) {
		return Go
	}
	if isLaravel(workDir) {
		return Laravel
	}
	return defaultFramework
}

func isNestJS(workDir string) bool {
	if fileExists(filepath.Join(workDir, "nest-cli.json")) {
		return true
	}
	manifest, ok := loadNPMManifest(workDir)
	return ok && manifest.hasDependency("@nestjs/core")
}

func isGo(workDir string) bool {
	return fileExists(filepath.Join(workDir, "go.mod"))
}

func isLaravel(workDir string) bool {
	manifest, ok := loadComposerManifest(workDir)
	return ok && manifest.hasDependency("laravel/framework")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

type npmManifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (m *npmManifest) hasDependency(name string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.Dependencies[name]; ok {
		return true
	}
	_, ok := m.DevDependencies[name]
	return ok
}

func loadNPMManifest(workDir string) (*npmManifest, bool) {
	data, err := os.ReadFile(filepath.Join(workDir, "package.json"))
	if err != nil {
		return nil, false
	}
	var m npmManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return &m, true
}

type composerManifest struct {
	Require    map[string]string `json:"require"`
	RequireDev map[string]string `json:"require-dev"`
}

func (m *composerManifest) hasDependency(name string) bool {
	if m == nil {
		return false
	}
	target := strings.ToLower(name)
	for dep := range m.Require {
		if strings.ToLower(dep) == target {
			return true
		}
	}
	for dep := range m.RequireDev {
		if strings.ToLower(dep) == target {
			return true
		}
	}
	return false
}

func loadComposerManifest(workDir string) (*composerManifest, bool) {
	data, err := os.ReadFile(filepath.Join(workDir, "composer.json"))
	if err != nil {
		return nil, false
	}
	var m composerManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return &m, true
}
