package onboarding

// Step is a screen of the onboarding wizard.
type Step int

const (
	StepPersonalInfo Step = iota + 1
	StepEducation
	StepDocuments
	StepTrackSelection
	StepReview
	StepQuestion1
	StepQuestion2
	StepQuestion3
	StepQuestion4
	StepQuestion5
	StepResults
)

const (
	TotalSteps    = int(StepResults)
	QuestionCount = int(StepQuestion5-StepQuestion1) + 1
)

var stepTitles = map[Step]string{
	StepPersonalInfo:   "Personal Information",
	StepEducation:      "Educational Background",
	StepDocuments:      "Document Upload",
	StepTrackSelection: "Track Selection",
	StepReview:         "Review & Confirm",
	StepQuestion1:      "Aptitude Assessment",
	StepQuestion2:      "Aptitude Assessment",
	StepQuestion3:      "Aptitude Assessment",
	StepQuestion4:      "Aptitude Assessment",
	StepQuestion5:      "Aptitude Assessment",
	StepResults:        "Your Results",
}

func (s Step) String() string {
	if title, ok := stepTitles[s]; ok {
		return title
	}
	return "Unknown"
}

func (s Step) Valid() bool { return s >= StepPersonalInfo && s <= StepResults }

func (s Step) IsQuestion() bool { return s >= StepQuestion1 && s <= StepQuestion5 }

// questionIndex is the 0-based index of the question shown on s, -1 on other steps.
func (s Step) questionIndex() int {
	if !s.IsQuestion() {
		return -1
	}
	return int(s - StepQuestion1)
}

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// transition describes the legal moves out of a step.
// A zero next or prev means the move does not exist.
type transition struct {
	next Step
	prev Step
	rule func(*Session) error
}

// transitions is the whole state machine. Back navigation stops at Question1:
// once an aptitude answer is committed, earlier screens are read-only.
var transitions = map[Step]transition{
	StepPersonalInfo:   {next: StepEducation, rule: (*Session).checkPersonalInfo},
	StepEducation:      {next: StepDocuments, prev: StepPersonalInfo, rule: (*Session).checkEducation},
	StepDocuments:      {next: StepTrackSelection, prev: StepEducation, rule: (*Session).checkDocuments},
	StepTrackSelection: {next: StepReview, prev: StepDocuments, rule: (*Session).checkTrack},
	StepReview:         {next: StepQuestion1, prev: StepTrackSelection, rule: (*Session).checkReview},
	StepQuestion1:      {next: StepQuestion2, prev: StepReview, rule: (*Session).checkAnswered},
	StepQuestion2:      {next: StepQuestion3, rule: (*Session).checkAnswered},
	StepQuestion3:      {next: StepQuestion4, rule: (*Session).checkAnswered},
	StepQuestion4:      {next: StepQuestion5, rule: (*Session).checkAnswered},
	StepQuestion5:      {next: StepResults, rule: (*Session).checkAnswered},
	StepResults:        {},
}
