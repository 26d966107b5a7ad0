package onboarding

import (
	"context"
	"fmt"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ongoza/cyberhub/core"
)

var (
	// errors
	ErrFinishBeforeResults = errors.New("onboarding can only be finished from the results step")
	ErrTerminalStep        = errors.New("no step after results; finish the onboarding instead")
	ErrSessionClosed       = errors.New("onboarding session is closed")
	ErrNotQuestionStep     = errors.New("current step is not an aptitude question")
	ErrAlreadyAnswered     = errors.New("question already answered")
	ErrProfileLocked       = errors.New("profile can no longer be edited")
	errNoNotifier          = errors.New("no completion notifier configured")

	NowFunc = func() time.Time { return time.Now().UTC() } // mockable
)

// SessionDeps holds the collaborators of a Session. Only Notifier is required.
type SessionDeps struct {
	Bank          *QuestionBank
	Validate      *validator.Validate
	Translator    ut.Translator
	Verifier      Verifier
	Notifier      CompletionNotifier
	Logger        core.Logger
	Metrics       Metrics
	MaxUploadSize int64
}

func (deps *SessionDeps) setDefaults() {
	if deps.Bank == nil {
		deps.Bank = DefaultQuestionBank()
	}
	if deps.Validate == nil || deps.Translator == nil {
		deps.Validate, deps.Translator = NewValidator(deps.Bank)
	}
	if deps.Verifier == nil {
		deps.Verifier = NewSimulatedVerifier(1500 * time.Millisecond)
	}
	if deps.Logger == nil {
		deps.Logger = core.NopLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.MaxUploadSize <= 0 {
		deps.MaxUploadSize = DefaultMaxUploadSize
	}
}

type inflightVerification struct {
	uploadID string
	cancel   context.CancelFunc
}

// Session is one applicant's pass through the wizard.
// All methods are safe for concurrent use; navigation, answers and finish are serialized
// while verifications resolve on their own goroutines.
type Session struct {
	deps SessionDeps

	mu          sync.Mutex
	id          string
	userID      string
	step        Step
	status      Status
	profile     Profile
	uploads     map[DocumentKind]*DocumentUpload
	answers     []AnswerRecord
	scores      []TrackScore
	createdAt   time.Time
	updatedAt   time.Time
	completedAt *time.Time

	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	inflight map[DocumentKind]inflightVerification
	wg       sync.WaitGroup
}

func NewSession(userID string, deps SessionDeps) *Session {
	deps.setDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	now := NowFunc()
	return &Session{
		deps:      deps,
		id:        uuid.NewString(),
		userID:    userID,
		step:      StepPersonalInfo,
		status:    StatusInProgress,
		uploads:   make(map[DocumentKind]*DocumentUpload, len(RequiredDocuments)),
		answers:   make([]AnswerRecord, 0, QuestionCount),
		scores:    deps.Bank.Score(nil),
		createdAt: now,
		updatedAt: now,
		ctx:       ctx,
		cancel:    cancel,
		inflight:  make(map[DocumentKind]inflightVerification),
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastActivity is the time of the last mutation.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) touch() { s.updatedAt = NowFunc() }

func (s *Session) checkLive() error {
	if s.closed || s.status != StatusInProgress {
		return ErrSessionClosed
	}
	return nil
}

// Advance moves to the next step if the current step's rule passes.
// A failing rule returns a *core.ValidationError and leaves the step unchanged.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	tr := transitions[s.step]
	if tr.next == 0 {
		return ErrTerminalStep
	}
	if err := tr.rule(s); err != nil {
		return err
	}
	s.moveTo(tr.next)
	return nil
}

func (s *Session) moveTo(step Step) {
	s.step = step
	s.touch()
	s.deps.Metrics.StepReached(step)
}

// Retreat moves one step back when the current step allows it and reports whether it moved.
func (s *Session) Retreat() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return false, err
	}
	tr := transitions[s.step]
	if tr.prev == 0 {
		return false, nil
	}
	s.step = tr.prev
	s.touch()
	return true, nil
}

func (s *Session) canRetreat() bool {
	return !s.closed && s.status == StatusInProgress && transitions[s.step].prev != 0
}

// UpdateProfile applies the provided fields. Fields are checked when leaving their step.
func (s *Session) UpdateProfile(pu ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	if s.step > StepReview {
		return ErrProfileLocked
	}
	pu.apply(&s.profile)
	s.touch()
	return nil
}

// Upload records a new document and starts its verification in the background.
// Invalid files fail with a *core.UploadError and never reach the Verifier.
// Uploading a kind again replaces the previous record; its pending verification is cancelled.
func (s *Session) Upload(kind DocumentKind, f File) (DocumentUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return DocumentUpload{}, err
	}
	if err := checkFile(kind, f, s.deps.MaxUploadSize); err != nil {
		s.deps.Metrics.UploadRejected(kind)
		return DocumentUpload{}, err
	}

	if prev, ok := s.inflight[kind]; ok {
		prev.cancel()
		delete(s.inflight, kind)
	}

	now := NowFunc()
	upload := &DocumentUpload{
		ID:          uuid.NewString(),
		Kind:        kind,
		FileName:    f.Name,
		ContentType: mediaType(f.ContentType),
		Size:        f.Size(),
		Status:      VerificationPending,
		UploadedAt:  now,
	}
	s.uploads[kind] = upload
	s.updatedAt = now

	ctx, cancel := context.WithCancel(s.ctx)
	s.inflight[kind] = inflightVerification{uploadID: upload.ID, cancel: cancel}
	s.wg.Add(1)
	go s.verify(ctx, upload.ID, kind, f)

	return upload.clone(), nil
}

func (s *Session) verify(ctx context.Context, uploadID string, kind DocumentKind, f File) {
	defer s.wg.Done()

	start := time.Now()
	confidence, err := s.deps.Verifier.Verify(ctx, kind, f)
	s.resolve(ctx, uploadID, kind, confidence, err, time.Since(start))
}

// resolve writes a verification outcome, unless the session was torn down
// or the upload was replaced in the meantime.
func (s *Session) resolve(ctx context.Context, uploadID string, kind DocumentKind, confidence int, err error, took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	upload, ok := s.uploads[kind]
	if s.closed || ctx.Err() != nil || !ok || upload.ID != uploadID {
		s.deps.Logger.Debug(fmt.Sprintf("discarding stale %s verification", kind), map[string]interface{}{
			"session_id": s.id,
			"upload_id":  uploadID,
		})
		return
	}
	if inf, ok := s.inflight[kind]; ok && inf.uploadID == uploadID {
		inf.cancel()
		delete(s.inflight, kind)
	}

	now := NowFunc()
	if err == nil && (confidence < MinConfidence || confidence > MaxConfidence) {
		err = errors.Errorf("confidence %d out of range", confidence)
	}
	if err != nil {
		uerr := core.NewUploadError(string(kind), errors.Wrap(err, "verification failed"), true)
		upload.Status = VerificationFailed
		upload.Failure = uerr.Error()
		upload.Retryable = uerr.Retryable
		s.deps.Logger.Warn("document verification failed", err, map[string]interface{}{
			"session_id": s.id,
			"kind":       kind,
		})
	} else {
		upload.Status = VerificationVerified
		upload.Confidence = &confidence
	}
	upload.VerifiedAt = &now
	s.updatedAt = now
	s.deps.Metrics.VerificationResolved(kind, upload.Status, took)
}

// NextQuestion returns the question of the current step, if any.
func (s *Session) NextQuestion() (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkLive() != nil {
		return Question{}, false
	}
	idx := s.step.questionIndex()
	if idx < 0 || idx < len(s.answers) {
		return Question{}, false
	}
	return s.deps.Bank.Question(idx)
}

// SubmitAnswer records the chosen option of the current question, rescores and auto-advances.
func (s *Session) SubmitAnswer(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLive(); err != nil {
		return err
	}
	idx := s.step.questionIndex()
	if idx < 0 {
		return ErrNotQuestionStep
	}
	if idx < len(s.answers) {
		return ErrAlreadyAnswered
	}
	q, ok := s.deps.Bank.Question(idx)
	if !ok {
		return ErrNotQuestionStep
	}
	value = core.CleanString(value)
	if _, ok := q.Option(value); !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "value", Error: "choose one of the available options"})
	}

	s.answers = append(s.answers, AnswerRecord{QuestionIndex: idx, Value: value})
	s.scores = s.deps.Bank.Score(s.answers)
	s.moveTo(transitions[s.step].next)
	return nil
}

// Finish completes the session from the results step.
// It calls the CompletionNotifier exactly once; later calls are no-ops.
// If the notifier fails the session stays on the results step and Finish may be retried.
func (s *Session) Finish(ctx context.Context) error {
	s.mu.Lock()

	if s.status == StatusCompleted {
		s.mu.Unlock()
		return nil
	}
	if err := s.checkLive(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.step != StepResults {
		s.mu.Unlock()
		return ErrFinishBeforeResults
	}
	if err := s.checkVerified(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.deps.Notifier == nil {
		s.mu.Unlock()
		return errNoNotifier
	}

	now := NowFunc()
	res := s.resultLocked(now)
	if err := s.deps.Notifier.Complete(ctx, res); err != nil {
		s.mu.Unlock()
		return err
	}
	s.status = StatusCompleted
	s.completedAt = &now
	s.updatedAt = now
	s.teardownLocked()
	s.mu.Unlock()

	s.wg.Wait()
	s.deps.Metrics.SessionCompleted(res.RecommendedTrack, now.Sub(s.createdAt))
	return nil
}

// Result returns the outcome once the session is completed.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusCompleted || s.completedAt == nil {
		return Result{}, false
	}
	return s.resultLocked(*s.completedAt), true
}

func (s *Session) resultLocked(completedAt time.Time) Result {
	res := Result{
		SessionID:   s.id,
		UserID:      s.userID,
		Profile:     s.profile,
		Answers:     append([]AnswerRecord(nil), s.answers...),
		Scores:      append([]TrackScore(nil), s.scores...),
		CompletedAt: completedAt,
	}
	if rec, ok := Recommended(s.scores); ok {
		res.RecommendedTrack = rec.Track
	}
	return res
}

// Close tears the session down: pending verifications are cancelled and awaited,
// and an unfinished session is marked abandoned. Closing twice is harmless.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.status == StatusInProgress {
		s.status = StatusAbandoned
		s.touch()
	}
	s.teardownLocked()
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Session) teardownLocked() {
	s.closed = true
	s.cancel()
	for kind, inf := range s.inflight {
		inf.cancel()
		delete(s.inflight, kind)
	}
}

// Snapshot is a read-only copy of a Session.
type Snapshot struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	Step             Step             `json:"step"`
	StepTitle        string           `json:"step_title"`
	TotalSteps       int              `json:"total_steps"`
	Progress         int              `json:"progress"` // percent
	CanRetreat       bool             `json:"can_retreat"`
	Status           Status           `json:"status"`
	Profile          Profile          `json:"profile"`
	Uploads          []DocumentUpload `json:"uploads"`
	Answers          []AnswerRecord   `json:"answers"`
	Scores           []TrackScore     `json:"scores"`
	RecommendedTrack TrackID          `json:"recommended_track,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:         s.id,
		UserID:     s.userID,
		Step:       s.step,
		StepTitle:  s.step.String(),
		TotalSteps: TotalSteps,
		Progress:   int(s.step) * 100 / TotalSteps,
		CanRetreat: s.canRetreat(),
		Status:     s.status,
		Profile:    s.profile,
		Uploads:    make([]DocumentUpload, 0, len(s.uploads)),
		Answers:    append([]AnswerRecord(nil), s.answers...),
		Scores:     append([]TrackScore(nil), s.scores...),
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
	for _, kind := range RequiredDocuments {
		if upload, ok := s.uploads[kind]; ok {
			snap.Uploads = append(snap.Uploads, upload.clone())
		}
	}
	if rec, ok := Recommended(s.scores); ok {
		snap.RecommendedTrack = rec.Track
	}
	if s.completedAt != nil {
		t := *s.completedAt
		snap.CompletedAt = &t
	}
	return snap
}

// Document returns a copy of the current upload of the given kind.
func (s *Session) Document(kind DocumentKind) (DocumentUpload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	upload, ok := s.uploads[kind]
	if !ok {
		return DocumentUpload{}, false
	}
	return upload.clone(), true
}

// Step rules. They run with the session lock held.

func (s *Session) checkFields(fields ...string) error {
	if err := s.deps.Validate.StructPartial(s.profile, fields...); err != nil {
		return core.TranslateValidationErrors(err, s.deps.Translator)
	}
	return nil
}

func (s *Session) checkPersonalInfo() error { return s.checkFields(personalInfoFields...) }

func (s *Session) checkEducation() error { return s.checkFields(educationFields...) }

func (s *Session) checkTrack() error { return s.checkFields(trackFields...) }

// checkDocuments requires every document to be uploaded; pending verifications may still resolve later.
func (s *Session) checkDocuments() error {
	var flds []core.FieldError
	for _, kind := range RequiredDocuments {
		upload, ok := s.uploads[kind]
		switch {
		case !ok:
			flds = append(flds, core.FieldError{Field: string(kind), Error: "this document is required"})
		case upload.Status == VerificationFailed:
			flds = append(flds, core.FieldError{Field: string(kind), Error: "verification failed, upload the document again"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (s *Session) checkReview() error {
	if err := s.deps.Validate.Struct(s.profile); err != nil {
		return core.TranslateValidationErrors(err, s.deps.Translator)
	}
	return s.checkDocuments()
}

func (s *Session) checkAnswered() error {
	if s.step.questionIndex() >= len(s.answers) {
		return core.NewValidationError(nil, core.FieldError{Field: "value", Error: "answer the question to continue"})
	}
	return nil
}

// checkVerified requires every document to be verified before finishing.
func (s *Session) checkVerified() error {
	var flds []core.FieldError
	for _, kind := range RequiredDocuments {
		upload, ok := s.uploads[kind]
		switch {
		case !ok:
			flds = append(flds, core.FieldError{Field: string(kind), Error: "this document is required"})
		case upload.Status == VerificationPending:
			flds = append(flds, core.FieldError{Field: string(kind), Error: "verification still in progress"})
		case upload.Status == VerificationFailed:
			flds = append(flds, core.FieldError{Field: string(kind), Error: "verification failed, upload the document again"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}
