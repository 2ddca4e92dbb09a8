package config

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// IsError reports whether the finding should stop the run.
func (r ValidationResult) IsError() bool {
	return r.Level == "error"
}

var (
	snapshotPattern = regexp.MustCompile(`^(lts-\d+\.\d+|nightly-\d{4}-\d{2}-\d{2})$`)
	versionPattern  = regexp.MustCompile(`^\d+(\.\d+)*$`)
)

// Validate checks the overrides. known reports whether a name is a managed
// tool or dependency.
func (f File) Validate(known func(string) bool) []ValidationResult {
	var results []ValidationResult
	results = append(results, f.validateSnapshot()...)
	results = append(results, f.validateBindistURL()...)
	results = append(results, f.validateVersions(known)...)
	return results
}

func (f File) validateSnapshot() []ValidationResult {
	snap := strings.TrimSpace(f.Snapshot)
	if snap == "" || snapshotPattern.MatchString(snap) {
		return nil
	}
	return []ValidationResult{{
		Level:   "warning",
		Message: fmt.Sprintf("snapshot %q does not look like lts-X.Y or nightly-YYYY-MM-DD", snap),
	}}
}

func (f File) validateBindistURL() []ValidationResult {
	raw := strings.TrimSpace(f.BindistURL)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return []ValidationResult{{
			Level:   "error",
			Message: fmt.Sprintf("bindist_url %q must be an http(s) URL", raw),
		}}
	}
	return nil
}

func (f File) validateVersions(known func(string) bool) []ValidationResult {
	names := make([]string, 0, len(f.Versions))
	for name := range f.Versions {
		names = append(names, name)
	}
	sort.Strings(names)

	var results []ValidationResult
	for _, name := range names {
		version := strings.TrimSpace(f.Versions[name])
		switch {
		case known != nil && !known(name):
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("versions: %q is not a managed tool; ignoring", name),
			})
		case version == "":
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("versions: %q has an empty version", name),
			})
		case !versionPattern.MatchString(version):
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("versions: %q version %q is not purely numeric; comparisons may be ambiguous", name, version),
			})
		}
	}
	return results
}
