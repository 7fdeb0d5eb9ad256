// Package spam classifies comment submissions with a fixed set of
// content and sender heuristics.
package spam

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Verdict is the outcome of a single evaluation. Reason is empty when
// IsSpam is false.
type Verdict struct {
	IsSpam bool
	Reason string
}

var cleanVerdict = Verdict{IsSpam: false, Reason: ""}

const (
	maxURLs        = 2
	minRepeatRun   = 5
	maxCapsRatio   = 0.5
	minCapsWordLen = 3
	urlPattern     = `https?://[A-Za-z0-9$\-_@.&+!*(),%]+`
)

var urlRegexp = regexp.MustCompile(urlPattern)

type Detector struct {
	blacklistWords    []string
	disposableDomains map[string]struct{}
}

func NewDetector() *Detector {
	return &Detector{
		blacklistWords: []string{
			"viagra",
			"cialis",
			"poker",
			"casino",
			"loan",
			"payday",
			"mortgage",
			"free money",
		},
		disposableDomains: map[string]struct{}{
			"tempmail.com":      {},
			"throwawaymail.com": {},
		},
	}
}

// Evaluate checks a comment submission against the heuristics in order and
// short-circuits on the first match. It never fails: malformed input (an
// email without '@', empty content) simply skips the affected checks.
func (d *Detector) Evaluate(content, email, name string) Verdict {
	contentLower := strings.ToLower(content)
	for _, word := range d.blacklistWords {
		if strings.Contains(contentLower, word) {
			return Verdict{IsSpam: true, Reason: fmt.Sprintf("Blacklisted word detected: %s", word)}
		}
	}

	if len(urlRegexp.FindAllString(content, -1)) > maxURLs {
		return Verdict{IsSpam: true, Reason: "Too many URLs in comment"}
	}

	if hasRepeatRun(content) {
		return Verdict{IsSpam: true, Reason: "Repetitive characters detected"}
	}

	if capsRatio(content) > maxCapsRatio {
		return Verdict{IsSpam: true, Reason: "Too many capitalized words"}
	}

	if domain, ok := emailDomain(email); ok {
		if _, blocked := d.disposableDomains[domain]; blocked {
			return Verdict{IsSpam: true, Reason: "Disposable email address detected"}
		}
	}

	return cleanVerdict
}

// hasRepeatRun reports whether content contains a run of at least
// minRepeatRun consecutive identical runes.
func hasRepeatRun(content string) bool {
	var (
		prev rune
		run  int
	)

	for _, r := range content {
		if r == prev {
			run++
			if run >= minRepeatRun {
				return true
			}

			continue
		}

		prev = r
		run = 1
	}

	return false
}

// capsRatio reports the fraction of tokens that are fully uppercase and at
// least minCapsWordLen long. Zero tokens means ratio zero.
func capsRatio(content string) float64 {
	words := strings.Fields(content)
	if len(words) == 0 {
		return 0
	}

	capsWords := 0

	for _, word := range words {
		if len(word) >= minCapsWordLen && isAllUpper(word) {
			capsWords++
		}
	}

	return float64(capsWords) / float64(len(words))
}

func isAllUpper(word string) bool {
	hasLetter := false

	for _, r := range word {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		}
	}

	return hasLetter
}

func emailDomain(email string) (string, bool) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "", false
	}

	return strings.ToLower(email[at+1:]), true
}

// CheckIPReputation is an extension point for an external IP reputation
// service. No provider is wired up; it always returns a clean verdict.
func (d *Detector) CheckIPReputation(ctx context.Context, ipAddress string) (Verdict, error) {
	_ = ipAddress

	return cleanVerdict, nil
}
