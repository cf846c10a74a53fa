package mrupdate

import (
	"regexp"
	"strings"
)

// NotApplicable is the VersionTag input and output for missing files.
const NotApplicable = "N/A"

// unknownVersion is returned by VersionTag for names without a version.
const unknownVersion = "???"

var (
	versionRe       = regexp.MustCompile(`\d+\.\d+[\w.-]*`)
	trailingVersion = regexp.MustCompile(`[-_]v?\d[\w.+-]*$`)
	loaderTokens    = []string{"fabric", "forge", "quilt"}
	loaderTokenRes  = make(map[string]*regexp.Regexp, len(loaderTokens))
	separatorRe     = regexp.MustCompile(`[-_]+`)
	spacesRe        = regexp.MustCompile(`\s+`)
)

const packagingSuffix = ".jar"

func init() {
	for _, tok := range loaderTokens {
		loaderTokenRes[tok] = regexp.MustCompile(`(^|[-_])` + tok + `([-_]|$)`)
	}
}

// VersionTag returns the version fragment of a mod file name.
func VersionTag(name string) string {
	if name == NotApplicable {
		return NotApplicable
	}
	v := versionRe.FindString(name)
	if v == "" {
		return unknownVersion
	}
	return v
}

// DisplayName derives a readable mod title from the file name. Stripping
// a token or version may expose another suffix, so the steps repeat until
// the name stops changing.
func DisplayName(name string) string {
	for {
		s := displayStep(name)
		if s == name {
			return s
		}
		name = s
	}
}

func displayStep(name string) string {
	s := trimSuffixes(name)
	for _, tok := range loaderTokens {
		s = stripToken(s, loaderTokenRes[tok])
	}
	if loc := trailingVersion.FindStringIndex(s); loc != nil && loc[0] > 0 {
		s = s[:loc[0]]
	}
	s = separatorRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func trimSuffixes(s string) string {
	for {
		switch {
		case strings.HasSuffix(s, DisabledSuffix):
			s = strings.TrimSuffix(s, DisabledSuffix)
		case strings.HasSuffix(s, packagingSuffix):
			s = strings.TrimSuffix(s, packagingSuffix)
		default:
			return s
		}
	}
}

// stripToken removes the first delimited match of re. A name consisting
// solely of the token is kept.
func stripToken(s string, re *regexp.Regexp) string {
	m := re.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	left, right := s[m[2]:m[3]], s[m[4]:m[5]]
	sep := ""
	if left != "" && right != "" {
		sep = left
	}
	out := s[:m[0]] + sep + s[m[1]:]
	if out == "" {
		return s
	}
	return out
}

// DisabledPath returns p with exactly one disabled suffix.
func DisabledPath(p string) string {
	for strings.HasSuffix(p, DisabledSuffix) {
		p = strings.TrimSuffix(p, DisabledSuffix)
	}
	return p + DisabledSuffix
}
