package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/ongoza/cyberhub/apps/api/echo"
	"github.com/ongoza/cyberhub/core"
	"github.com/ongoza/cyberhub/core/onboarding"
	"github.com/ongoza/cyberhub/core/user"
	emailsvc "github.com/ongoza/cyberhub/services/email"
	logsvc "github.com/ongoza/cyberhub/services/logger"
	metricsvc "github.com/ongoza/cyberhub/services/metrics"
	"github.com/ongoza/cyberhub/storage/database"
	inmemdb "github.com/ongoza/cyberhub/storage/database/inmem"
	sqlxrepos "github.com/ongoza/cyberhub/storage/database/sqlx"
)

// TODO:
// - persist live sessions so a restart does not lose wizards in progress
// - plug the real document verification service in place of SimulatedVerifier
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type repositories struct {
	users   user.Repository
	results onboarding.ResultRepository
	close   func() error
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up logger
	sink, err := logsvc.NewZapLogger(conf)
	if err != nil {
		return errors.Wrap(err, "building zap logger")
	}
	logger := logsvc.NewRollbarLogger(sink.Named("API"), conf)
	defer logger.Close()

	// set up DB
	repos, err := setUpRepositories(conf)
	if err != nil {
		return errors.Wrap(err, "setting up database")
	}
	defer func() {
		if err := repos.close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	bank := onboarding.DefaultQuestionBank()
	onboarding.RegisterValidators(validate, translator, bank)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.users, validate, translator)

	metrics, err := metricsvc.NewPrometheusMetrics()
	if err != nil {
		return errors.Wrap(err, "registering metrics")
	}

	onbSvc, err := onboarding.NewService(onboarding.Deps{
		Bank:       bank,
		Validate:   validate,
		Translator: translator,
		Verifier:   onboarding.NewSimulatedVerifier(conf.Onboarding.VerificationDelay),
		Notifier: onboarding.NewNotifier(onboarding.NotifierDeps{
			Users:   usrSvc,
			Results: repos.results,
			MailSvc: mailSvc,
			Logger:  logger,
		}),
		Users:         usrSvc,
		Results:       repos.results,
		Logger:        logger,
		Metrics:       metrics,
		MaxUploadSize: conf.Onboarding.MaxUploadSize,
		SessionTTL:    conf.Onboarding.SessionTTL,
	})
	if err != nil {
		return errors.Wrap(err, "setting up onboarding")
	}
	onbSvc.StartJanitor(conf.Onboarding.SweepInterval)
	defer onbSvc.Shutdown()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		Logger:         logger,
		Translator:     translator,
		UserSvc:        usrSvc,
		OnboardingSvc:  onbSvc,
		MetricsHandler: metrics.Handler(),
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API listening on " + conf.Server.Address)
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "server error")

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
	}
	return nil
}

// setUpRepositories picks the storage engine: "memory" keeps everything in process, anything else is postgres.
func setUpRepositories(conf *core.Config) (*repositories, error) {
	if conf.Database.Engine == "memory" {
		db := inmemdb.Open()
		return &repositories{
			users:   inmemdb.NewUserRepository(db),
			results: inmemdb.NewResultRepository(db),
			close:   func() error { return nil },
		}, nil
	}

	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &repositories{
		users:   sqlxrepos.NewUserRepository(db),
		results: sqlxrepos.NewResultRepository(db),
		close:   db.Close,
	}, nil
}
