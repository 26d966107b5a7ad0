package onboarding

import (
	"github.com/pkg/errors"
)

type TrackID string

const (
	TrackBuilders      TrackID = "builders"
	TrackLeaders       TrackID = "leaders"
	TrackEntrepreneurs TrackID = "entrepreneurs"
	TrackEducators     TrackID = "educators"
	TrackResearchers   TrackID = "researchers"
)

type Track struct {
	ID          TrackID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

// QuestionType is presentational only; every type scores the same way.
type QuestionType string

const (
	QuestionPersonality QuestionType = "personality"
	QuestionSkill       QuestionType = "skill"
	QuestionTechnical   QuestionType = "technical"
	QuestionScenario    QuestionType = "scenario"
	QuestionPreference  QuestionType = "preference"
)

type Option struct {
	Value string  `json:"value"`
	Text  string  `json:"text"`
	Track TrackID `json:"-"`
}

type Question struct {
	ID      int          `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Options []Option     `json:"options"`
}

func (q Question) Option(value string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// QuestionBank is the immutable questionnaire and the tracks it scores.
// It is shared read-only by every session.
type QuestionBank struct {
	tracks    []Track
	questions []Question
}

// NewQuestionBank checks the questionnaire is well formed; tracks are kept in declaration order.
func NewQuestionBank(tracks []Track, questions []Question) (*QuestionBank, error) {
	if len(tracks) == 0 {
		return nil, errors.New("question bank: no tracks")
	}
	if len(questions) != QuestionCount {
		return nil, errors.Errorf("question bank: %d questions, want %d", len(questions), QuestionCount)
	}

	known := make(map[TrackID]bool, len(tracks))
	for _, t := range tracks {
		if t.ID == "" || known[t.ID] {
			return nil, errors.Errorf("question bank: invalid or duplicate track %q", t.ID)
		}
		known[t.ID] = true
	}
	for _, q := range questions {
		if len(q.Options) == 0 {
			return nil, errors.Errorf("question bank: question %d has no options", q.ID)
		}
		values := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if values[opt.Value] {
				return nil, errors.Errorf("question bank: question %d: duplicate option %q", q.ID, opt.Value)
			}
			values[opt.Value] = true
			if !known[opt.Track] {
				return nil, errors.Errorf("question bank: question %d: option %q maps to unknown track %q", q.ID, opt.Value, opt.Track)
			}
		}
	}

	bank := &QuestionBank{
		tracks:    append([]Track(nil), tracks...),
		questions: make([]Question, len(questions)),
	}
	for i, q := range questions {
		q.Options = append([]Option(nil), q.Options...)
		bank.questions[i] = q
	}
	return bank, nil
}

func (b *QuestionBank) Len() int { return len(b.questions) }

// Question returns the i-th (0-based) question.
func (b *QuestionBank) Question(i int) (Question, bool) {
	if i < 0 || i >= len(b.questions) {
		return Question{}, false
	}
	return b.questions[i], true
}

func (b *QuestionBank) Tracks() []Track {
	return append([]Track(nil), b.tracks...)
}

func (b *QuestionBank) Track(id TrackID) (Track, bool) {
	for _, t := range b.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

var defaultBank = mustQuestionBank(defaultTracks, defaultQuestions)

// DefaultQuestionBank is the aptitude questionnaire shown to every applicant.
func DefaultQuestionBank() *QuestionBank { return defaultBank }

func mustQuestionBank(tracks []Track, questions []Question) *QuestionBank {
	bank, err := NewQuestionBank(tracks, questions)
	if err != nil {
		panic(err)
	}
	return bank
}

var defaultTracks = []Track{
	{ID: TrackBuilders, Name: "Builders Track", Description: "Technical, hands-on cybersecurity operations"},
	{ID: TrackLeaders, Name: "Leaders Track", Description: "Management & policy roles"},
	{ID: TrackEntrepreneurs, Name: "Entrepreneurs Track", Description: "Cyber startups & innovation"},
	{ID: TrackEducators, Name: "Educators Track", Description: "Cyber literacy & training specialization"},
	{ID: TrackResearchers, Name: "Researchers Track", Description: "Threat analysis & emerging tech R&D"},
}

var defaultQuestions = []Question{
	{
		ID:     1,
		Type:   QuestionPersonality,
		Prompt: "When faced with a security incident, what is your first instinct?",
		Options: []Option{
			{Value: "A", Text: "Dive into logs and technical analysis immediately", Track: TrackBuilders},
			{Value: "B", Text: "Coordinate team response and delegate tasks", Track: TrackLeaders},
			{Value: "C", Text: "Think about innovative detection methods", Track: TrackEntrepreneurs},
			{Value: "D", Text: "Document the incident for training purposes", Track: TrackEducators},
			{Value: "E", Text: "Research similar incidents and emerging patterns", Track: TrackResearchers},
		},
	},
	{
		ID:     2,
		Type:   QuestionSkill,
		Prompt: "Which activity sounds most appealing to you?",
		Options: []Option{
			{Value: "A", Text: "Building and configuring security tools", Track: TrackBuilders},
			{Value: "B", Text: "Developing security policies and frameworks", Track: TrackLeaders},
			{Value: "C", Text: "Creating innovative security solutions", Track: TrackEntrepreneurs},
			{Value: "D", Text: "Teaching others about cybersecurity", Track: TrackEducators},
			{Value: "E", Text: "Analyzing threat intelligence data", Track: TrackResearchers},
		},
	},
	{
		ID:     3,
		Type:   QuestionTechnical,
		Prompt: "Complete this Python security check:\nif user_input.contains(\"<?php\"):\n    _____",
		Options: []Option{
			{Value: "A", Text: "block_request()", Track: TrackBuilders},
			{Value: "B", Text: "alert_admin()", Track: TrackLeaders},
			{Value: "C", Text: "log_and_analyze()", Track: TrackResearchers},
			{Value: "D", Text: "sanitize_input()", Track: TrackBuilders},
		},
	},
	{
		ID:     4,
		Type:   QuestionScenario,
		Prompt: "Your company needs to implement a new security program. What role do you prefer?",
		Options: []Option{
			{Value: "A", Text: "Implement technical controls and monitoring", Track: TrackBuilders},
			{Value: "B", Text: "Lead the project and manage stakeholders", Track: TrackLeaders},
			{Value: "C", Text: "Design an innovative approach to the problem", Track: TrackEntrepreneurs},
			{Value: "D", Text: "Train staff on the new security measures", Track: TrackEducators},
			{Value: "E", Text: "Research best practices and emerging threats", Track: TrackResearchers},
		},
	},
	{
		ID:     5,
		Type:   QuestionPreference,
		Prompt: "What type of cybersecurity content do you consume most?",
		Options: []Option{
			{Value: "A", Text: "Technical tutorials and lab exercises", Track: TrackBuilders},
			{Value: "B", Text: "Industry reports and compliance frameworks", Track: TrackLeaders},
			{Value: "C", Text: "Startup stories and innovation trends", Track: TrackEntrepreneurs},
			{Value: "D", Text: "Educational resources and teaching methods", Track: TrackEducators},
			{Value: "E", Text: "Academic papers and threat research", Track: TrackResearchers},
		},
	},
}
