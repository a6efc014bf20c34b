package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/gobwas/glob"
)

// MaxPatternLength mirrors the DNS name limit
const MaxPatternLength = 253

// ExclusionRules holds the excluded bookmark folders and domain patterns
type ExclusionRules struct {
	Folders []string `json:"excluded_folders"`
	Domains []string `json:"excluded_domains"`
}

// ExclusionCandidate is a bookmark or document evaluated against the rules
type ExclusionCandidate struct {
	URL string

	// FolderIDs holds the containing folder id followed by its ancestors
	FolderIDs []string
}

// SweepResult reports the effect of saving a rule set
type SweepResult struct {
	Removed    int `json:"removed"`
	Reeligible int `json:"reeligible"`
}

// ValidatePattern checks a domain pattern and returns a human-readable reason
// wrapped in ErrValidation when it is rejected.
func ValidatePattern(pattern string) error {
	reason := patternProblem(pattern)
	if reason == "" {
		if _, err := compilePattern(pattern); err != nil {
			reason = fmt.Sprintf("pattern does not compile: %v", err)
		}
	}
	if reason != "" {
		return fmt.Errorf("%w: %q: %s", ErrValidation, pattern, reason)
	}
	return nil
}

func patternProblem(pattern string) string {
	switch {
	case pattern == "":
		return "pattern cannot be empty"
	case len(pattern) > MaxPatternLength:
		return fmt.Sprintf("pattern exceeds maximum length (%d characters)", MaxPatternLength)
	case strings.HasPrefix(pattern, "http://") || strings.HasPrefix(pattern, "https://"):
		return "pattern cannot contain protocol (http:// or https://)"
	case strings.Contains(pattern, "/"):
		return "pattern cannot contain path segments (/)"
	case strings.Contains(pattern, " "):
		return "pattern cannot contain spaces"
	case strings.HasPrefix(pattern, ".") && !strings.HasPrefix(pattern, "*."):
		return "pattern cannot start with dot"
	case strings.Contains(pattern, "**"):
		return "pattern cannot contain double wildcard (**)"
	}

	for _, c := range pattern {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			continue
		}
		switch c {
		case '.', '-', '*', '?', ':':
			continue
		}
		return fmt.Sprintf("pattern contains invalid character: %q", c)
	}
	return ""
}

// Validate checks every domain pattern and reports all failures at once.
func (r ExclusionRules) Validate() error {
	var errs []error
	for _, p := range r.Domains {
		if err := ValidatePattern(p); err != nil {
			errs = append(errs, err)
		}
	}
	for _, f := range r.Folders {
		if strings.TrimSpace(f) == "" {
			errs = append(errs, fmt.Errorf("%w: folder id cannot be empty", ErrValidation))
		}
	}
	return errors.Join(errs...)
}

// Normalized returns a copy with lower-cased, de-duplicated domains and
// de-duplicated folders, preserving first-seen order.
func (r ExclusionRules) Normalized() ExclusionRules {
	out := ExclusionRules{Folders: []string{}, Domains: []string{}}
	seen := make(map[string]struct{})
	for _, f := range r.Folders {
		f = strings.TrimSpace(f)
		if _, ok := seen["f:"+f]; ok {
			continue
		}
		seen["f:"+f] = struct{}{}
		out.Folders = append(out.Folders, f)
	}
	for _, d := range r.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if _, ok := seen["d:"+d]; ok {
			continue
		}
		seen["d:"+d] = struct{}{}
		out.Domains = append(out.Domains, d)
	}
	return out
}

// IsEmpty reports whether no rule is configured
func (r ExclusionRules) IsEmpty() bool {
	return len(r.Folders) == 0 && len(r.Domains) == 0
}

type patternKind int

const (
	patternExact patternKind = iota
	patternSubdomain
	patternGlob
)

type domainMatcher struct {
	pattern string
	kind    patternKind
	base    string
	glob    glob.Glob
	port    bool // pattern names a port, match against host:port
}

func compilePattern(pattern string) (*domainMatcher, error) {
	p := strings.ToLower(pattern)
	m := &domainMatcher{pattern: p, port: strings.Contains(p, ":")}

	switch {
	case strings.HasPrefix(p, "*.") && !strings.ContainsAny(p[2:], "*?"):
		m.kind = patternSubdomain
		m.base = p[2:]
	case strings.ContainsAny(p, "*?"):
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		m.kind = patternGlob
		m.glob = g
	default:
		m.kind = patternExact
	}
	return m, nil
}

func (m *domainMatcher) match(host, hostPort string) bool {
	subject := host
	if m.port {
		subject = hostPort
	}

	switch m.kind {
	case patternSubdomain:
		return subject == m.base || strings.HasSuffix(subject, "."+m.base)
	case patternGlob:
		return m.glob.Match(subject)
	default:
		return subject == m.pattern
	}
}

// ExclusionMatcher evaluates candidates against a compiled rule set.
// It is immutable and safe for concurrent use.
type ExclusionMatcher struct {
	folders map[string]struct{}
	domains []*domainMatcher
}

// NewExclusionMatcher compiles a rule set. Every pattern must validate.
func NewExclusionMatcher(rules ExclusionRules) (*ExclusionMatcher, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	m := &ExclusionMatcher{folders: make(map[string]struct{}, len(rules.Folders))}
	for _, f := range rules.Folders {
		m.folders[f] = struct{}{}
	}
	for _, p := range rules.Domains {
		dm, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrValidation, p, err)
		}
		m.domains = append(m.domains, dm)
	}
	return m, nil
}

// IsExcluded reports whether the candidate's folder chain or URL host matches.
func (m *ExclusionMatcher) IsExcluded(c ExclusionCandidate) bool {
	if m == nil {
		return false
	}
	for _, id := range c.FolderIDs {
		if _, ok := m.folders[id]; ok {
			return true
		}
	}
	return m.MatchesURL(c.URL)
}

// MatchesURL reports whether the URL's host matches any domain pattern.
// Input without a scheme is treated as a bare host.
func (m *ExclusionMatcher) MatchesURL(rawURL string) bool {
	if m == nil || len(m.domains) == 0 || rawURL == "" {
		return false
	}

	host, hostPort := splitHost(rawURL)
	if host == "" {
		return false
	}
	for _, dm := range m.domains {
		if dm.match(host, hostPort) {
			return true
		}
	}
	return false
}

// HasFolderRules reports whether any folder is excluded
func (m *ExclusionMatcher) HasFolderRules() bool {
	return m != nil && len(m.folders) > 0
}

func splitHost(rawURL string) (host, hostPort string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		u, err = url.Parse("http://" + rawURL)
		if err != nil {
			return "", ""
		}
	}
	host = strings.ToLower(u.Hostname())
	hostPort = host
	if port := u.Port(); port != "" {
		hostPort = host + ":" + port
	}
	return host, hostPort
}
