package guestbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreMessageClean(t *testing.T) {
	res := ScoreMessage("Alice", "Thanks for sharing this, the project write-up was really helpful.")
	assert.Equal(t, 0, res.Score)
	assert.False(t, res.IsSpam)
	assert.Empty(t, res.Reasons)
	assert.Empty(t, res.AutoStatus)
}

func TestScoreMessageEmptyInput(t *testing.T) {
	res := ScoreMessage("", "")
	assert.Equal(t, 0, res.Score)
	assert.False(t, res.IsSpam)
}

func TestScoreMessageSignals(t *testing.T) {
	tests := []struct {
		name    string
		message string
		score   int
	}{
		{
			name:    "all caps only",
			message: "THIS IS REALLY GREAT WORK MY FRIEND KEEP IT UP",
			score:   20,
		},
		{
			name:    "punctuation only",
			message: "wow!!! nice!!! cool!!!",
			score:   15,
		},
		{
			name:    "single keyword",
			message: "you could win at the casino they said",
			score:   25,
		},
		{
			name:    "repeated keyword counts once",
			message: "prize prize prize prize prize prize",
			score:   25,
		},
		{
			name:    "two links no bonus",
			message: "see http://example.com/a and http://example.com/b for details",
			score:   0,
		},
		{
			name:    "three links",
			message: "see http://a.example http://b.example http://c.example for details",
			score:   30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreMessage("Visitor", tt.message)
			assert.Equal(t, tt.score, res.Score)
		})
	}
}

func TestScoreMessageSpamThresholdBoundary(t *testing.T) {
	// one keyword stays clean, two keywords land exactly on the threshold
	below := ScoreMessage("Visitor", "i heard you won the lottery last week")
	assert.Equal(t, 25, below.Score)
	assert.False(t, below.IsSpam)

	at := ScoreMessage("Visitor", "i heard you won the lottery prize last week")
	assert.Equal(t, 50, at.Score)
	assert.True(t, at.IsSpam)
	assert.Empty(t, at.AutoStatus)
}

func TestScoreMessageThreeKeywordsIsSpam(t *testing.T) {
	res := ScoreMessage("Visitor", "you are the winner of our lottery prize this week")
	assert.Equal(t, 75, res.Score)
	assert.True(t, res.IsSpam)
	assert.Empty(t, res.AutoStatus, "75 is below the auto-reject threshold")
}

func TestScoreMessageClampsAtHundred(t *testing.T) {
	msg := "CONGRATULATIONS WINNER CLAIM YOUR LOTTERY PRIZE AT THE CASINO http://a.example http://b.example http://c.example"
	res := ScoreMessage("Visitor", msg)
	assert.Equal(t, 100, res.Score)
	assert.True(t, res.IsSpam)
	assert.Equal(t, StatusRejected, res.AutoStatus)
}

func TestScoreMessageBlatantSpamAutoRejected(t *testing.T) {
	res := ScoreMessage("Bot", "WIN A FREE LOTTERY PRIZE NOW!!! http://a http://b http://c")
	assert.Equal(t, 100, res.Score)
	assert.True(t, res.IsSpam)
	assert.Equal(t, StatusRejected, res.AutoStatus)
	assert.Contains(t, res.Reasons, "excessive capitalization")
	assert.Contains(t, res.Reasons, "keyword: lottery")
	assert.Contains(t, res.Reasons, "keyword: prize")
	assert.Contains(t, res.Reasons, "too many links")
}

func TestScoreMessageDeterministic(t *testing.T) {
	msg := "you are the winner of our lottery prize this week"
	first := ScoreMessage("Visitor", msg)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ScoreMessage("Visitor", msg))
	}
}
