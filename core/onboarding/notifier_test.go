package onboarding

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongoza/cyberhub/core"
	"github.com/ongoza/cyberhub/core/user"
	emailsvc "github.com/ongoza/cyberhub/services/email"
)

func testResult() Result {
	bank := DefaultQuestionBank()
	answers := []AnswerRecord{{0, "A"}, {1, "A"}, {2, "B"}, {3, "A"}, {4, "A"}}
	scores := bank.Score(answers)
	rec, _ := Recommended(scores)
	return Result{
		SessionID:        "s1",
		UserID:           "u1",
		Profile:          Profile{FirstName: "Amina", LastName: "Okoro", Email: "amina@test.io"},
		Answers:          answers,
		Scores:           scores,
		RecommendedTrack: rec.Track,
		CompletedAt:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNotifier_Complete(t *testing.T) {
	emailsvc.ResetSentMessages()
	usrs := newFakeUsers(user.User{ID: "u1", Name: "Amina Okoro", Email: "amina@test.io"})
	results := newFakeResults()
	n := NewNotifier(NotifierDeps{
		Users:   usrs,
		Results: results,
		MailSvc: emailsvc.NewConsoleServiceMock(&core.Config{AppName: "CyberHub", FrontendBaseURL: "http://front.test"}),
	})

	res := testResult()
	require.NoError(t, n.Complete(context.Background(), res))

	usr, err := usrs.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, usr.OnboardingCompleted)

	saved, err := results.GetLatestResult(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, res, saved)

	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, "amina@test.io", msg.To[0].Address)
	assert.Equal(t, "Welcome aboard!", msg.Subject)
	assert.Contains(t, msg.TextContent, "Hi Amina,")
	assert.Contains(t, msg.TextContent, "Your recommended path: Builders Track")
	assert.Contains(t, msg.TextContent, "http://front.test/dashboard")
}

func TestNotifier_Complete_Retry(t *testing.T) {
	emailsvc.ResetSentMessages()
	usrs := newFakeUsers(user.User{ID: "u1", Name: "Amina Okoro", Email: "amina@test.io"})
	results := newFakeResults()
	results.err = errors.New("connection reset")
	n := NewNotifier(NotifierDeps{
		Users:   usrs,
		Results: results,
		MailSvc: emailsvc.NewConsoleServiceMock(&core.Config{AppName: "CyberHub"}),
	})
	res := testResult()

	err := n.Complete(context.Background(), res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving onboarding result")
	assert.Empty(t, emailsvc.SentMessages, "no email before the result is stored")
	usr, err := usrs.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, usr.OnboardingCompleted, "the flag waits for the archived result")

	results.err = nil
	require.NoError(t, n.Complete(context.Background(), res))
	require.NoError(t, n.Complete(context.Background(), res))
	assert.Len(t, results.results, 1, "one row per session")
	usr, err = usrs.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, usr.OnboardingCompleted)
}

func TestNotifier_Complete_UnknownUser(t *testing.T) {
	results := newFakeResults()
	n := NewNotifier(NotifierDeps{Users: newFakeUsers(), Results: results})

	err := n.Complete(context.Background(), testResult())
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	assert.Empty(t, results.results)
}
