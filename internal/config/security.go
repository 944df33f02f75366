package config

import (
	"regexp"
	"strings"
)

// secretRule flags one kind of credential. When re has a capture group,
// only that group is the secret. Rules accept both TOML ("key = 'v'") and
// YAML ("key: v") assignments.
type secretRule struct {
	kind string
	re   *regexp.Regexp
}

var secretRules = []secretRule{
	{"github token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{22,}`)},
	{"token", regexp.MustCompile(`(?i)(?:token|bearer|api[_-]?key)\s*[=:]\s*['"]?([A-Za-z0-9_-]{15,})`)},
	{"password", regexp.MustCompile(`(?i)(?:password|passwd|pwd)\s*[=:]\s*['"]?([^\s'"]+)`)},
	{"url credentials", regexp.MustCompile(`[a-z][a-z0-9+.-]*://([^/\s:@'"]+:[^/\s@'"]+)@`)},
}

// Secret is a line of a descriptor that looks like it embeds a credential.
type Secret struct {
	Kind    string
	Line    int    // 1-based
	Preview string // the line with the secret replaced
}

// FindSecrets scans descriptor content for hardcoded credentials, most
// commonly a token pasted into a hook command. Each line is reported at
// most once, under the first rule it matches.
func FindSecrets(content string) []Secret {
	var found []Secret
	for i, line := range strings.Split(content, "\n") {
		for _, rule := range secretRules {
			loc := rule.re.FindStringSubmatchIndex(line)
			if loc == nil {
				continue
			}
			start, end := loc[0], loc[1]
			if len(loc) > 2 {
				start, end = loc[2], loc[3]
			}
			found = append(found, Secret{
				Kind:    rule.kind,
				Line:    i + 1,
				Preview: strings.TrimSpace(line[:start] + "[REDACTED]" + line[end:]),
			})
			break
		}
	}
	return found
}
