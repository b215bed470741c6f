package guestbook

import (
	"regexp"
	"strings"
	"unicode"
)

// Moderation statuses a guestbook entry can be in.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusFlagged  = "flagged"
	StatusHidden   = "hidden"
)

// SpamThreshold marks an entry as spam; RejectThreshold auto-rejects it.
const (
	SpamThreshold   = 50
	RejectThreshold = 80
)

// spamKeywords is the denylist checked case-insensitively against the message.
var spamKeywords = []string{
	"viagra",
	"casino",
	"lottery",
	"prize",
	"winner",
	"congratulations",
	"click here",
	"free money",
}

var linkPattern = regexp.MustCompile(`https?://\S+`)

// SpamResult is the outcome of scoring a candidate message.
type SpamResult struct {
	Score   int      `json:"score"`
	IsSpam  bool     `json:"is_spam"`
	Reasons []string `json:"reasons,omitempty"`
	// AutoStatus is non-empty when the score forces a status on the entry.
	AutoStatus string `json:"auto_status,omitempty"`
}

// ScoreMessage computes the spam score for a candidate guestbook message.
// It is pure: same inputs always produce the same result, and it never fails,
// even for empty input.
func ScoreMessage(name, message string) SpamResult {
	res := SpamResult{}

	var upper, letters, punct, total int
	for _, r := range message {
		total++
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
		if strings.ContainsRune("!?.,;:", r) {
			punct++
		}
	}

	if letters > 0 && float64(upper)/float64(letters) > 0.5 {
		res.Score += 20
		res.Reasons = append(res.Reasons, "excessive capitalization")
	}

	if total > 0 && float64(punct)/float64(total) > 0.3 {
		res.Score += 15
		res.Reasons = append(res.Reasons, "excessive punctuation")
	}

	lower := strings.ToLower(message)
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			res.Score += 25
			res.Reasons = append(res.Reasons, "keyword: "+kw)
		}
	}

	if len(linkPattern.FindAllStringIndex(message, -1)) > 2 {
		res.Score += 30
		res.Reasons = append(res.Reasons, "too many links")
	}

	if res.Score > 100 {
		res.Score = 100
	}
	res.IsSpam = res.Score >= SpamThreshold
	if res.Score >= RejectThreshold {
		res.AutoStatus = StatusRejected
	}

	return res
}
