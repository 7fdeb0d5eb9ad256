package spam_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todiane/djangify/spam"
)

func TestDetectorEvaluate(t *testing.T) {
	t.Parallel()

	detector := spam.NewDetector()

	tests := []struct {
		name       string
		content    string
		email      string
		author     string
		wantSpam   bool
		wantReason string
	}{
		{
			name:       "blacklisted word",
			content:    "Buy viagra now",
			email:      "user@example.com",
			wantSpam:   true,
			wantReason: "Blacklisted word detected: viagra",
		},
		{
			name:       "blacklisted word mixed case",
			content:    "VISIT our CaSiNo today",
			email:      "user@example.com",
			wantSpam:   true,
			wantReason: "Blacklisted word detected: casino",
		},
		{
			name:       "blacklisted phrase",
			content:    "get Free Money here",
			email:      "user@example.com",
			wantSpam:   true,
			wantReason: "Blacklisted word detected: free money",
		},
		{
			name:     "two urls is fine",
			content:  "see http://a.example.com and https://b.example.com",
			email:    "user@example.com",
			wantSpam: false,
		},
		{
			name:       "too many urls",
			content:    "http://a.example.com https://b.example.com http://c.example.com",
			email:      "user@example.com",
			wantSpam:   true,
			wantReason: "Too many URLs in comment",
		},
		{
			name:       "repetitive characters",
			content:    "this is sooooo great",
			email:      "user@example.com",
			wantSpam:   true,
			wantReason: "Repetitive characters detected",
		},
		{
			name:     "four repeats allowed",
			content:  "soooo good",
			email:    "user@example.com",
			wantSpam: false,
		},
		{
			name:       "repeated punctuation",
			content:    "amazing!!!!!",
			email:      "user@example.com",
			wantSpam:   true,
			wantReason: "Repetitive characters detected",
		},
		{
			name:       "repeated run of non-ascii runes",
			content:    "wow ыыыыы",
			email:      "user@example.com",
			wantSpam:   true,
			wantReason: "Repetitive characters detected",
		},
		{
			name:       "mostly capitalized words",
			content:    "BUY NOW BEST DEAL ok",
			email:      "user@example.com",
			wantSpam:   true,
			wantReason: "Too many capitalized words",
		},
		{
			name:     "short caps do not count",
			content:  "OK GO it is fine here",
			email:    "user@example.com",
			wantSpam: false,
		},
		{
			name:     "empty content does not divide by zero",
			content:  "",
			email:    "user@example.com",
			wantSpam: false,
		},
		{
			name:       "disposable email",
			content:    "nice article, thanks",
			email:      "user@tempmail.com",
			wantSpam:   true,
			wantReason: "Disposable email address detected",
		},
		{
			name:       "disposable email uppercase domain",
			content:    "nice article, thanks",
			email:      "user@TempMail.COM",
			wantSpam:   true,
			wantReason: "Disposable email address detected",
		},
		{
			name:     "email without at sign",
			content:  "nice article, thanks",
			email:    "not-an-email",
			wantSpam: false,
		},
		{
			name:     "clean comment",
			content:  "Great write-up, learned a lot.",
			email:    "user@example.com",
			wantSpam: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verdict := detector.Evaluate(tt.content, tt.email, tt.author)
			assert.Equal(t, tt.wantSpam, verdict.IsSpam)

			if tt.wantSpam {
				assert.Equal(t, tt.wantReason, verdict.Reason)
			} else {
				assert.Empty(t, verdict.Reason)
			}
		})
	}
}

func TestDetectorRuleOrder(t *testing.T) {
	t.Parallel()

	detector := spam.NewDetector()

	// Blacklist wins over the URL count even when both match.
	verdict := detector.Evaluate(
		"viagra http://a.example.com http://b.example.com http://c.example.com",
		"user@tempmail.com",
		"someone",
	)
	assert.True(t, verdict.IsSpam)
	assert.Equal(t, "Blacklisted word detected: viagra", verdict.Reason)
}

func TestCheckIPReputation(t *testing.T) {
	t.Parallel()

	detector := spam.NewDetector()

	verdict, err := detector.CheckIPReputation(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, verdict.IsSpam)
}
