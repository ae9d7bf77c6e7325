package textproc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/repoindexer/repoindexer/internal/model"
)

const licenseSniffWindow = 4096

// LicenseOptions configures the license detection/deny pass.
type LicenseOptions struct {
	Allowed []string // if non-empty, a detected license not in this set is denied
	Denied  []string // a detected license in this set is always denied
}

// PIIOptions configures the PII redaction pass.
type PIIOptions struct {
	Enabled     bool
	Replacement string // defaults to "[REDACTED]"
	Patterns    []SecretRule // configured patterns, merged additively (not by id override)
}

// PolicyOptions bundles both passes.
type PolicyOptions struct {
	License LicenseOptions
	PII     PIIOptions
}

var licenseRules = map[string]*regexp.Regexp{
	"MIT":     regexp.MustCompile(`(?i)MIT License|Permission is hereby granted, free of charge`),
	"Apache2": regexp.MustCompile(`(?i)Apache License,?\s*Version 2\.0`),
	"GPL":     regexp.MustCompile(`(?i)GNU GENERAL PUBLIC LICENSE`),
	"BSD":     regexp.MustCompile(`(?i)Redistribution and use in source and binary forms`),
	"MPL":     regexp.MustCompile(`(?i)Mozilla Public License`),
}

var defaultPIIRules = []SecretRule{
	{ID: "email", Pattern: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)},
	{ID: "ssn", Pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{ID: "phone", Pattern: regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
	{ID: "card-like", Pattern: regexp.MustCompile(`\b\d{13,16}\b`)},
}

// PolicyEngine runs the license and PII passes over a file body.
type PolicyEngine struct {
	opts     PolicyOptions
	piiRules []SecretRule
}

func NewPolicyEngine(opts PolicyOptions) *PolicyEngine {
	if opts.PII.Replacement == "" {
		opts.PII.Replacement = "[REDACTED]"
	}
	rules := append(append([]SecretRule{}, defaultPIIRules...), opts.PII.Patterns...)
	return &PolicyEngine{opts: opts, piiRules: rules}
}

// DetectLicense inspects the first 4 KiB of text against the known license
// regex table; returns "" if none match.
func (p *PolicyEngine) DetectLicense(text string) string {
	window := text
	if len(window) > licenseSniffWindow {
		window = window[:licenseSniffWindow]
	}
	for name, re := range licenseRules {
		if re.MatchString(window) {
			return name
		}
	}
	return ""
}

// EvaluateLicense returns a PolicyFinding and true if the file's license
// policy denies path; ok is false when the file is not denied.
func (p *PolicyEngine) EvaluateLicense(path, text string) (finding model.PolicyFinding, denied bool) {
	license := p.DetectLicense(text)
	if license == "" {
		return model.PolicyFinding{}, false
	}

	deny := containsFold(p.opts.License.Denied, license)
	if !deny && len(p.opts.License.Allowed) > 0 && !containsFold(p.opts.License.Allowed, license) {
		deny = true
	}
	if !deny {
		return model.PolicyFinding{}, false
	}

	return model.PolicyFinding{
		Path:    path,
		Kind:    model.PolicyKindLicense,
		Message: fmt.Sprintf("license %s denied", license),
		Details: map[string]string{"license": license},
	}, true
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// RedactPII replaces every PII match with the configured token and returns
// the redacted text plus one finding per match.
func (p *PolicyEngine) RedactPII(path, text string) (redacted string, findings []model.PolicyFinding) {
	if !p.opts.PII.Enabled {
		return text, nil
	}
	redacted = text
	for _, rule := range p.piiRules {
		matches := rule.Pattern.FindAllString(redacted, -1)
		if len(matches) == 0 {
			continue
		}
		for range matches {
			findings = append(findings, model.PolicyFinding{
				Path:    path,
				Kind:    model.PolicyKindPII,
				Message: fmt.Sprintf("redacted %s match", rule.ID),
				Details: map[string]string{"rule": rule.ID},
			})
		}
		redacted = rule.Pattern.ReplaceAllString(redacted, p.opts.PII.Replacement)
	}
	return redacted, findings
}
