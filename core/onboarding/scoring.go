package onboarding

import "math"

// AnswerRecord is the option chosen for the question at QuestionIndex (0-based).
type AnswerRecord struct {
	QuestionIndex int    `json:"question_index"`
	Value         string `json:"value"`
}

type TrackScore struct {
	Track       TrackID `json:"track"`
	Name        string  `json:"name"`
	RawWeight   int     `json:"raw_weight"`
	Score       int     `json:"score"` // 0-100
	Recommended bool    `json:"recommended"`
}

// Score folds answers into one TrackScore per declared track.
// Each counted answer weighs 1 for the track of its option; scores are the rounded share of answers.
// The highest score is recommended, ties going to the first declared track.
// With no answers every score is 0 and nothing is recommended.
func (b *QuestionBank) Score(answers []AnswerRecord) []TrackScore {
	raw := make(map[TrackID]int, len(b.tracks))
	var total int
	for _, ans := range answers {
		q, ok := b.Question(ans.QuestionIndex)
		if !ok {
			continue
		}
		opt, ok := q.Option(ans.Value)
		if !ok {
			continue
		}
		raw[opt.Track]++
		total++
	}

	scores := make([]TrackScore, len(b.tracks))
	best := -1
	for i, t := range b.tracks {
		scores[i] = TrackScore{Track: t.ID, Name: t.Name, RawWeight: raw[t.ID]}
		if total > 0 {
			scores[i].Score = int(math.Round(100 * float64(raw[t.ID]) / float64(total)))
		}
		if total > 0 && (best < 0 || scores[i].Score > scores[best].Score) {
			best = i
		}
	}
	if best >= 0 {
		scores[best].Recommended = true
	}
	return scores
}

// Recommended returns the recommended entry of scores, if any.
func Recommended(scores []TrackScore) (TrackScore, bool) {
	for _, s := range scores {
		if s.Recommended {
			return s, true
		}
	}
	return TrackScore{}, false
}
