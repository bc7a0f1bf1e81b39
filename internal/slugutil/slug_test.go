package slugutil

import (
	"regexp"
	"testing"
)

var validSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestProjectSlugMatchesAlphabet(t *testing.T) {
	cases := [][2]string{
		{"acme", "api"},
		{"Acme_Corp", "My.Repo!!"},
		{"---weird---", "___name___"},
		{"UPPER", "CASE"},
	}
	for _, c := range cases {
		got := ProjectSlug(c[0], c[1])
		if !validSlug.MatchString(got) {
			t.Errorf("ProjectSlug(%q, %q) = %q, does not match %s", c[0], c[1], got, validSlug)
		}
	}
}

func TestProjectSlugStable(t *testing.T) {
	if got := ProjectSlug("acme", "api"); got != "acme-api" {
		t.Errorf("ProjectSlug(acme, api) = %q, want acme-api", got)
	}
}

func TestDeploymentID(t *testing.T) {
	if got := DeploymentID("acme-api", 42); got != "acme-api-42" {
		t.Errorf("DeploymentID = %q, want acme-api-42", got)
	}
}

func TestDeploymentIDInjective(t *testing.T) {
	seen := map[string]bool{}
	pairs := []struct {
		slug string
		pr   int
	}{
		{"acme-api", 1}, {"acme-api", 11}, {"acme-api-1", 1}, {"acme", 1011},
	}
	for _, p := range pairs {
		id := DeploymentID(p.slug, p.pr)
		if seen[id] {
			t.Fatalf("collision detected for deployment id %q", id)
		}
		seen[id] = true
	}
}
