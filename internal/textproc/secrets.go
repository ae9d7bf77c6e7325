package textproc

import (
	"regexp"
	"strings"

	"github.com/repoindexer/repoindexer/internal/model"
)

// SecretRule is one named secret-detection pattern.
type SecretRule struct {
	ID      string
	Pattern *regexp.Regexp
}

const excerptMaxLen = 200

// defaultSecretRules mirrors SPEC_FULL.md §4.4's default rule set.
func defaultSecretRules() []SecretRule {
	return []SecretRule{
		{ID: "aws-access-key", Pattern: regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
		{ID: "bearer-token", Pattern: regexp.MustCompile(`(?i)bearer\s+[a-z0-9._\-]{10,}`)},
		{ID: "private-key-header", Pattern: regexp.MustCompile(`-----BEGIN (?:RSA |EC |OPENSSH )?PRIVATE KEY-----`)},
		{ID: "api-key", Pattern: regexp.MustCompile(`(?i)(?:api[_-]?key|secret|token)\s*[:=]\s*['"]?[a-z0-9._\-]{8,}`)},
		{ID: "jwt", Pattern: regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)},
	}
}

// MergeSecretRules merges user-supplied rules onto the defaults by id: user
// rules win ties, and duplicate ids (after merge) are dropped to a single
// entry — matching SPEC_FULL.md §4.4 "duplicates by id dropped."
func MergeSecretRules(userRules []SecretRule) []SecretRule {
	byID := make(map[string]SecretRule)
	order := make([]string, 0)
	for _, r := range defaultSecretRules() {
		byID[r.ID] = r
		order = append(order, r.ID)
	}
	for _, r := range userRules {
		if _, exists := byID[r.ID]; !exists {
			order = append(order, r.ID)
		}
		byID[r.ID] = r
	}
	merged := make([]SecretRule, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return merged
}

// SecretScanner runs a precompiled rule table line-by-line.
type SecretScanner struct {
	rules []SecretRule
}

func NewSecretScanner(rules []SecretRule) *SecretScanner {
	return &SecretScanner{rules: rules}
}

// Scan matches preSanitizeText (the post-normalize, pre-sanitize body) line
// by line against every rule, returning findings sorted by line then rule
// order. path is attached to every finding.
func (s *SecretScanner) Scan(path, preSanitizeText string) []model.SecretFinding {
	var findings []model.SecretFinding
	lines := strings.Split(preSanitizeText, "\n")
	for i, line := range lines {
		for _, rule := range s.rules {
			if rule.Pattern.MatchString(line) {
				findings = append(findings, model.SecretFinding{
					Path:    path,
					Line:    i + 1,
					RuleID:  rule.ID,
					Excerpt: excerpt(line),
				})
			}
		}
	}
	return findings
}

func excerpt(line string) string {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) > excerptMaxLen {
		trimmed = trimmed[:excerptMaxLen]
	}
	return trimmed
}
