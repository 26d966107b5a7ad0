package onboarding

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/ongoza/cyberhub/core"
	"github.com/ongoza/cyberhub/core/user"
)

var ErrResultNotFound = errors.New("onboarding result not found")

// Result is the frozen outcome of a finished session.
type Result struct {
	SessionID        string         `json:"session_id"`
	UserID           string         `json:"user_id"`
	Profile          Profile        `json:"profile"`
	Answers          []AnswerRecord `json:"answers"`
	Scores           []TrackScore   `json:"scores"`
	RecommendedTrack TrackID        `json:"recommended_track,omitempty"`
	CompletedAt      time.Time      `json:"completed_at"` // UTC
}

type (
	// CompletionNotifier reports a finished session to the rest of the platform.
	// A Session calls it at most once per successful Finish.
	CompletionNotifier interface {
		Complete(ctx context.Context, res Result) error
	}

	// ResultRepository archives finished sessions.
	// SaveResult must be an upsert on SessionID so a retried completion stores one row.
	ResultRepository interface {
		SaveResult(ctx context.Context, res Result) error
		GetLatestResult(ctx context.Context, userID string) (Result, error)
	}

	// OnboardingCompleter loads a user record and flips its onboarding flag.
	OnboardingCompleter interface {
		UserGetter
		CompleteOnboarding(ctx context.Context, userID string) (user.User, error)
	}
)

type NotifierDeps struct {
	Users   OnboardingCompleter
	Results ResultRepository
	MailSvc core.EmailService
	Logger  core.Logger
}

// Notifier archives the result, marks the user onboarded then sends the welcome email.
// The flag only flips once the result is stored, and every step tolerates being replayed.
type Notifier struct {
	users   OnboardingCompleter
	results ResultRepository
	mailSvc core.EmailService
	logger  core.Logger
}

var _ CompletionNotifier = (*Notifier)(nil)

func NewNotifier(deps NotifierDeps) *Notifier {
	n := &Notifier{
		users:   deps.Users,
		results: deps.Results,
		mailSvc: deps.MailSvc,
		logger:  deps.Logger,
	}
	if n.logger == nil {
		n.logger = core.NopLogger()
	}
	return n
}

type welcomeData struct {
	Name      string
	TrackName string
	Scores    []TrackScore
}

func (n *Notifier) Complete(ctx context.Context, res Result) error {
	if _, err := n.users.GetByID(ctx, res.UserID); err != nil {
		return errors.Wrap(err, "finding user")
	}
	if err := n.results.SaveResult(ctx, res); err != nil {
		return errors.Wrap(err, "saving onboarding result")
	}
	usr, err := n.users.CompleteOnboarding(ctx, res.UserID)
	if err != nil {
		return errors.Wrap(err, "completing user onboarding")
	}

	if n.mailSvc != nil {
		n.mailSvc.SendMessages(n.welcomeMessage(usr, res))
	}
	n.logger.Info("onboarding completed", map[string]interface{}{
		"session_id": res.SessionID,
		"track":      res.RecommendedTrack,
	}, usr)
	return nil
}

func (n *Notifier) welcomeMessage(usr user.User, res Result) *core.EmailMessage {
	name := res.Profile.FirstName
	if name == "" {
		name = usr.Name
	}
	data := welcomeData{Name: name, Scores: res.Scores}
	if rec, ok := Recommended(res.Scores); ok {
		data.TrackName = rec.Name
	}

	to := usr.Email
	if to == "" {
		to = res.Profile.Email
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: to}},
		Subject:      "Welcome aboard!",
		TemplateName: "onboarding_complete",
		TemplateData: data,
	}
}
