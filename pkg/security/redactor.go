package security

import (
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

const (
	mask = "********"
	// MinSecretLen is the shortest value that is redacted. Shorter values
	// (single card digits) would mask attempt counters and timestamps.
	MinSecretLen = 3
)

// Redactor masks secret values (coordinate card entries, env-resolved
// credentials) in log lines. Secrets can be added while a mission runs.
type Redactor struct {
	mu      sync.RWMutex
	secrets []string
}

func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}
	r.Add(secrets...)
	return r
}

// NewCoordinateRedactor registers every value of the coordinate table.
func NewCoordinateRedactor(coordinates map[string]string) *Redactor {
	values := make([]string, 0, len(coordinates))
	for _, v := range coordinates {
		values = append(values, v)
	}
	return NewRedactor(values...)
}

func (r *Redactor) Add(secrets ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range secrets {
		if utf8.RuneCountInString(s) < MinSecretLen || r.has(s) {
			continue
		}
		r.secrets = append(r.secrets, s)
	}
	// Longer secrets are replaced before their substrings
	sort.SliceStable(r.secrets, func(i, j int) bool {
		return len(r.secrets[i]) > len(r.secrets[j])
	})
}

func (r *Redactor) has(s string) bool {
	for _, existing := range r.secrets {
		if existing == s {
			return true
		}
	}
	return false
}

// Redact masks every secret that stands on its own, so 7364 is masked in
// "typed 7364" but not inside "173640".
func (r *Redactor) Redact(s string) string {
	if r == nil {
		return s
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, secret := range r.secrets {
		s = replaceTokens(s, secret)
	}
	return s
}

func replaceTokens(s, secret string) string {
	var b strings.Builder
	written, from := 0, 0
	for {
		i := strings.Index(s[from:], secret)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(secret)
		if !atBoundary(s[:start], s[end:], secret) {
			from = start + 1
			continue
		}
		b.WriteString(s[written:start])
		b.WriteString(mask)
		written, from = end, end
	}
	if written == 0 {
		return s
	}
	b.WriteString(s[written:])
	return b.String()
}

// atBoundary reports whether the match is not glued to a word character that
// continues it. A secret that itself starts or ends with punctuation matches
// on that side regardless.
func atBoundary(before, after, secret string) bool {
	first, _ := utf8.DecodeRuneInString(secret)
	last, _ := utf8.DecodeLastRuneInString(secret)
	prev, _ := utf8.DecodeLastRuneInString(before)
	next, _ := utf8.DecodeRuneInString(after)
	if before != "" && isWord(first) && isWord(prev) {
		return false
	}
	if after != "" && isWord(last) && isWord(next) {
		return false
	}
	return true
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
