package onboarding

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongoza/cyberhub/core/user"
)

type fakeNotifier struct {
	mu      sync.Mutex
	calls   int
	results []Result
	err     error
}

func (n *fakeNotifier) Complete(_ context.Context, res Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.err != nil {
		return n.err
	}
	n.results = append(n.results, res)
	return nil
}

func (n *fakeNotifier) setErr(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

func (n *fakeNotifier) count() (calls, completed int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls, len(n.results)
}

type verdict struct {
	confidence int
	err        error
}

// stubVerifier blocks every verification until its file is released.
type stubVerifier struct {
	ignoreCtx bool

	mu    sync.Mutex
	gates map[string]chan verdict
	calls int
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{gates: make(map[string]chan verdict)}
}

func (v *stubVerifier) gate(name string) chan verdict {
	v.mu.Lock()
	defer v.mu.Unlock()
	g, ok := v.gates[name]
	if !ok {
		g = make(chan verdict, 1)
		v.gates[name] = g
	}
	return g
}

func (v *stubVerifier) release(name string, confidence int, err error) {
	v.gate(name) <- verdict{confidence: confidence, err: err}
}

func (v *stubVerifier) callCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

func (v *stubVerifier) Verify(ctx context.Context, _ DocumentKind, f File) (int, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()

	g := v.gate(f.Name)
	if v.ignoreCtx {
		d := <-g
		return d.confidence, d.err
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case d := <-g:
		return d.confidence, d.err
	}
}

var instantVerifier = VerifierFunc(func(context.Context, DocumentKind, File) (int, error) {
	return 95, nil
})

func newTestSession(t *testing.T, verifier Verifier, notifier CompletionNotifier) *Session {
	t.Helper()
	s := NewSession("user-1", SessionDeps{Verifier: verifier, Notifier: notifier})
	t.Cleanup(s.Close)
	return s
}

func strp(s string) *string { return &s }

func validProfileUpdate() ProfileUpdate {
	year := 2020
	return ProfileUpdate{
		FirstName:      strp("Amina"),
		LastName:       strp("Okoro"),
		Email:          strp("amina@test.io"),
		Phone:          strp("+254 712 345 678"),
		Address:        strp("12 Moi Avenue, Nairobi"),
		EducationLevel: strp(EducationBachelors),
		Institution:    strp("University of Nairobi"),
		GraduationYear: &year,
		Track:          strp(string(TrackBuilders)),
	}
}

func validFile(kind DocumentKind, name ...string) File {
	f := File{Data: []byte("%PDF-1.4 test document")}
	switch kind {
	case DocumentID:
		f.Name, f.ContentType = "id.png", "image/png"
	case DocumentTranscript:
		f.Name, f.ContentType = "transcript.pdf", "application/pdf"
	case DocumentCV:
		f.Name, f.ContentType = "cv.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	if len(name) > 0 {
		f.Name = name[0]
	}
	return f
}

func uploadAll(t *testing.T, s *Session) {
	t.Helper()
	for _, kind := range RequiredDocuments {
		_, err := s.Upload(kind, validFile(kind))
		require.NoError(t, err)
	}
}

func waitVerified(t *testing.T, s *Session) {
	t.Helper()
	assert.Eventually(t, func() bool {
		for _, kind := range RequiredDocuments {
			doc, ok := s.Document(kind)
			if !ok || doc.Status != VerificationVerified {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}

// toReview fills the profile, uploads every document and walks to the review step.
func toReview(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.UpdateProfile(validProfileUpdate()))
	uploadAll(t, s)
	for s.Step() < StepReview {
		require.NoError(t, s.Advance(), "advance from %s", s.Step())
	}
}

// toResults walks a fresh session to the results step with the given option values.
func toResults(t *testing.T, s *Session, values ...string) {
	t.Helper()
	toReview(t, s)
	require.NoError(t, s.Advance())
	for _, v := range values {
		require.NoError(t, s.SubmitAnswer(v))
	}
	require.Equal(t, StepResults, s.Step())
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]user.User
}

func newFakeUsers(users ...user.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]user.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	usr, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (f *fakeUsers) CompleteOnboarding(_ context.Context, id string) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	usr, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.OnboardingCompleted = true
	f.users[id] = usr
	return usr, nil
}

type fakeResults struct {
	mu      sync.Mutex
	results map[string]Result
	err     error
}

func newFakeResults() *fakeResults {
	return &fakeResults{results: make(map[string]Result)}
}

func (r *fakeResults) SaveResult(_ context.Context, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.results[res.SessionID] = res
	return nil
}

func (r *fakeResults) GetLatestResult(_ context.Context, userID string) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest Result
	found := false
	for _, res := range r.results {
		if res.UserID == userID && (!found || res.CompletedAt.After(latest.CompletedAt)) {
			latest, found = res, true
		}
	}
	if !found {
		return Result{}, ErrResultNotFound
	}
	return latest, nil
}
