package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answersOf(values ...string) []AnswerRecord {
	answers := make([]AnswerRecord, len(values))
	for i, v := range values {
		answers[i] = AnswerRecord{QuestionIndex: i, Value: v}
	}
	return answers
}

func scoreMap(scores []TrackScore) map[TrackID]int {
	m := make(map[TrackID]int, len(scores))
	for _, s := range scores {
		m[s.Track] = s.Score
	}
	return m
}

func TestQuestionBank_Score(t *testing.T) {
	bank := DefaultQuestionBank()

	tests := []struct {
		name       string
		answers    []AnswerRecord
		wantScores map[TrackID]int
		wantRec    TrackID // empty: nothing recommended
	}{
		{
			name:       "no answers",
			wantScores: map[TrackID]int{TrackBuilders: 0, TrackLeaders: 0, TrackEntrepreneurs: 0, TrackEducators: 0, TrackResearchers: 0},
		},
		{
			name:       "mostly builders",
			answers:    answersOf("A", "A", "A", "B", "A"),
			wantScores: map[TrackID]int{TrackBuilders: 80, TrackLeaders: 20, TrackEntrepreneurs: 0, TrackEducators: 0, TrackResearchers: 0},
			wantRec:    TrackBuilders,
		},
		{
			name:       "technical option D counts for builders",
			answers:    answersOf("E", "E", "D", "A", "E"),
			wantScores: map[TrackID]int{TrackBuilders: 40, TrackLeaders: 0, TrackEntrepreneurs: 0, TrackEducators: 0, TrackResearchers: 60},
			wantRec:    TrackResearchers,
		},
		{
			name:       "tie goes to first declared track",
			answers:    answersOf("B", "E", "A", "B", "E"),
			wantScores: map[TrackID]int{TrackBuilders: 20, TrackLeaders: 40, TrackEntrepreneurs: 0, TrackEducators: 0, TrackResearchers: 40},
			wantRec:    TrackLeaders,
		},
		{
			name:       "two-way tie",
			answers:    answersOf("B", "A"),
			wantScores: map[TrackID]int{TrackBuilders: 50, TrackLeaders: 50, TrackEntrepreneurs: 0, TrackEducators: 0, TrackResearchers: 0},
			wantRec:    TrackBuilders,
		},
		{
			name:       "later tie keeps declaration order",
			answers:    answersOf("E", "D"),
			wantScores: map[TrackID]int{TrackBuilders: 0, TrackLeaders: 0, TrackEntrepreneurs: 0, TrackEducators: 50, TrackResearchers: 50},
			wantRec:    TrackEducators,
		},
		{
			name:       "rounding",
			answers:    answersOf("A", "B", "C"),
			wantScores: map[TrackID]int{TrackBuilders: 33, TrackLeaders: 33, TrackEntrepreneurs: 33, TrackEducators: 0, TrackResearchers: 0},
			wantRec:    TrackBuilders,
		},
		{
			name:       "unknown values are ignored",
			answers:    []AnswerRecord{{QuestionIndex: 0, Value: "Z"}, {QuestionIndex: 9, Value: "A"}, {QuestionIndex: 1, Value: "D"}},
			wantScores: map[TrackID]int{TrackBuilders: 0, TrackLeaders: 0, TrackEntrepreneurs: 0, TrackEducators: 100, TrackResearchers: 0},
			wantRec:    TrackEducators,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := bank.Score(tt.answers)
			require.Len(t, scores, len(bank.Tracks()))
			assert.Equal(t, tt.wantScores, scoreMap(scores))

			rec, ok := Recommended(scores)
			if tt.wantRec == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantRec, rec.Track)

			var flagged int
			for _, s := range scores {
				if s.Recommended {
					flagged++
				}
			}
			assert.Equal(t, 1, flagged)
		})
	}
}

func TestQuestionBank_Score_TrackOrder(t *testing.T) {
	bank := DefaultQuestionBank()
	scores := bank.Score(answersOf("A"))
	for i, track := range bank.Tracks() {
		assert.Equal(t, track.ID, scores[i].Track)
		assert.Equal(t, track.Name, scores[i].Name)
	}
	assert.Equal(t, 1, scores[0].RawWeight)
}

// every answer sequence, and every prefix of it, sums to 100 within rounding drift.
func TestQuestionBank_Score_SumProperty(t *testing.T) {
	bank := DefaultQuestionBank()
	maxDrift := len(bank.Tracks()) - 1

	var sequences [][]string
	var walk func(idx int, acc []string)
	walk = func(idx int, acc []string) {
		if idx == bank.Len() {
			sequences = append(sequences, append([]string(nil), acc...))
			return
		}
		q, _ := bank.Question(idx)
		for _, opt := range q.Options {
			walk(idx+1, append(acc, opt.Value))
		}
	}
	walk(0, nil)
	require.Len(t, sequences, 5*5*4*5*5)

	for _, seq := range sequences {
		for n := 0; n <= len(seq); n++ {
			scores := bank.Score(answersOf(seq[:n]...))
			var sum int
			for _, s := range scores {
				require.GreaterOrEqual(t, s.Score, 0)
				require.LessOrEqual(t, s.Score, 100)
				sum += s.Score
			}
			if n == 0 {
				require.Equal(t, 0, sum)
				continue
			}
			drift := sum - 100
			if drift < 0 {
				drift = -drift
			}
			require.LessOrEqual(t, drift, maxDrift, "answers %v", seq[:n])

			// deterministic
			again := bank.Score(answersOf(seq[:n]...))
			require.Equal(t, scores, again)
		}
	}
}
