package onboarding

import (
	"context"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/ongoza/cyberhub/core"
	"github.com/ongoza/cyberhub/core/user"
)

var (
	// errors
	ErrSessionNotFound  = errors.New("onboarding session not found")
	ErrAlreadyOnboarded = errors.New("user has already completed onboarding")
)

// DefaultSessionTTL applies when no session TTL is configured.
const DefaultSessionTTL = 2 * time.Hour

// UserGetter loads the user starting the wizard.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Deps struct {
	Bank          *QuestionBank
	Validate      *validator.Validate
	Translator    ut.Translator
	Verifier      Verifier
	Notifier      CompletionNotifier
	Users         UserGetter
	Results       ResultRepository
	Logger        core.Logger
	Metrics       Metrics
	MaxUploadSize int64
	SessionTTL    time.Duration
}

// Service keeps the live sessions, at most one in progress per user.
// Finished sessions stay readable until they expire.
type Service struct {
	sessDeps SessionDeps
	users    UserGetter
	results  ResultRepository
	logger   core.Logger
	metrics  Metrics
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*Session // {sessionID: session}
	byUser   map[string]string   // {userID: in-progress sessionID}

	done         chan struct{}
	shutdownOnce sync.Once
	janitorOnce  sync.Once
	wg           sync.WaitGroup
}

func NewService(deps Deps) (*Service, error) {
	if deps.Notifier == nil {
		return nil, errNoNotifier
	}
	if deps.Users == nil || deps.Results == nil {
		return nil, errors.New("onboarding service: users and results repositories are required")
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = DefaultSessionTTL
	}

	sessDeps := SessionDeps{
		Bank:          deps.Bank,
		Validate:      deps.Validate,
		Translator:    deps.Translator,
		Verifier:      deps.Verifier,
		Notifier:      deps.Notifier,
		Logger:        deps.Logger,
		Metrics:       deps.Metrics,
		MaxUploadSize: deps.MaxUploadSize,
	}
	sessDeps.setDefaults()
	if sessDeps.Bank.Len() != QuestionCount {
		return nil, errors.Errorf("onboarding service: question bank has %d questions, want %d", sessDeps.Bank.Len(), QuestionCount)
	}

	return &Service{
		sessDeps: sessDeps,
		users:    deps.Users,
		results:  deps.Results,
		logger:   sessDeps.Logger,
		metrics:  sessDeps.Metrics,
		ttl:      deps.SessionTTL,
		sessions: make(map[string]*Session),
		byUser:   make(map[string]string),
		done:     make(chan struct{}),
	}, nil
}

func (svc *Service) Bank() *QuestionBank { return svc.sessDeps.Bank }

// Start opens the wizard for userID, resuming the user's session in progress if any.
func (svc *Service) Start(ctx context.Context, userID string) (*Session, error) {
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if usr.OnboardingCompleted {
		return nil, ErrAlreadyOnboarded
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if sid, ok := svc.byUser[userID]; ok {
		if sess, ok := svc.sessions[sid]; ok && sess.Status() == StatusInProgress {
			return sess, nil
		}
		delete(svc.byUser, userID)
	}

	sess := NewSession(userID, svc.sessDeps)
	if usr.Email != "" {
		email := usr.Email
		_ = sess.UpdateProfile(ProfileUpdate{Email: &email})
	}
	svc.sessions[sess.ID()] = sess
	svc.byUser[userID] = sess.ID()
	svc.metrics.SessionStarted()
	svc.metrics.ActiveSessions(len(svc.byUser))
	return sess, nil
}

func (svc *Service) Get(id string) (*Session, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sess, ok := svc.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Abandon tears the session down and forgets it.
func (svc *Service) Abandon(id string) error {
	sess, err := svc.remove(id)
	if err != nil {
		return err
	}
	if sess.Status() == StatusInProgress {
		svc.metrics.SessionAbandoned("user")
	}
	sess.Close()
	return nil
}

// Finish completes the session. Finishing a completed session again is a no-op.
func (svc *Service) Finish(ctx context.Context, id string) (Result, error) {
	sess, err := svc.Get(id)
	if err != nil {
		return Result{}, err
	}
	if err := sess.Finish(ctx); err != nil {
		return Result{}, err
	}

	svc.mu.Lock()
	if svc.byUser[sess.UserID()] == sess.ID() {
		delete(svc.byUser, sess.UserID())
	}
	svc.metrics.ActiveSessions(len(svc.byUser))
	svc.mu.Unlock()

	res, _ := sess.Result()
	return res, nil
}

// Result returns the latest archived result of userID.
func (svc *Service) Result(ctx context.Context, userID string) (Result, error) {
	return svc.results.GetLatestResult(ctx, userID)
}

func (svc *Service) remove(id string) (*Session, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sess, ok := svc.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(svc.sessions, id)
	if svc.byUser[sess.UserID()] == id {
		delete(svc.byUser, sess.UserID())
	}
	svc.metrics.ActiveSessions(len(svc.byUser))
	return sess, nil
}

// Sweep drops sessions idle for longer than the TTL and returns how many were dropped.
func (svc *Service) Sweep() int {
	deadline := NowFunc().Add(-svc.ttl)

	svc.mu.Lock()
	expired := make([]*Session, 0)
	for id, sess := range svc.sessions {
		if sess.LastActivity().Before(deadline) {
			expired = append(expired, sess)
			delete(svc.sessions, id)
			if svc.byUser[sess.UserID()] == id {
				delete(svc.byUser, sess.UserID())
			}
		}
	}
	svc.metrics.ActiveSessions(len(svc.byUser))
	svc.mu.Unlock()

	for _, sess := range expired {
		if sess.Status() == StatusInProgress {
			svc.metrics.SessionAbandoned("expired")
			svc.logger.Info("onboarding session expired", map[string]interface{}{
				"session_id": sess.ID(),
				"user_id":    sess.UserID(),
			})
		}
		sess.Close()
	}
	return len(expired)
}

// StartJanitor sweeps expired sessions every interval until Shutdown.
func (svc *Service) StartJanitor(interval time.Duration) {
	svc.janitorOnce.Do(func() {
		svc.wg.Add(1)
		go func() {
			defer svc.wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-svc.done:
					return
				case <-ticker.C:
					svc.Sweep()
				}
			}
		}()
	})
}

// Shutdown stops the janitor and tears every session down.
func (svc *Service) Shutdown() {
	svc.shutdownOnce.Do(func() { close(svc.done) })
	svc.wg.Wait()

	svc.mu.Lock()
	sessions := make([]*Session, 0, len(svc.sessions))
	for _, sess := range svc.sessions {
		sessions = append(sessions, sess)
	}
	svc.sessions = make(map[string]*Session)
	svc.byUser = make(map[string]string)
	svc.metrics.ActiveSessions(0)
	svc.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
