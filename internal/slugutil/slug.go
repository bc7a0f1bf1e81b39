// Package slugutil derives filesystem- and URL-safe identifiers from
// GitHub owner/repo pairs and pull-request numbers.
package slugutil

import (
	"fmt"
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// ProjectSlug lowercases "owner/name", replaces runs of non-alphanumeric
// characters with a single hyphen, and trims leading/trailing hyphens.
// It is pure and total on all inputs.
func ProjectSlug(owner, name string) string {
	raw := strings.ToLower(owner + "-" + name)
	slug := nonAlphanumeric.ReplaceAllString(raw, "-")
	return strings.Trim(slug, "-")
}

// DeploymentID composes the tracker's primary key from a project slug and a
// pull-request number.
func DeploymentID(projectSlug string, prNumber int) string {
	return fmt.Sprintf("%s-%d", projectSlug, prNumber)
}
