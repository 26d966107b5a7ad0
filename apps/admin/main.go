package main

import (
	"context"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ongoza/cyberhub/core"
	"github.com/ongoza/cyberhub/core/user"
	logsvc "github.com/ongoza/cyberhub/services/logger"
	"github.com/ongoza/cyberhub/storage/database"
	sqlxrepos "github.com/ongoza/cyberhub/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	sink, err := logsvc.NewZapLogger(conf)
	if err != nil {
		panic(err)
	}
	logger := sink.Named("ADMIN").Sugar()
	defer func() { _ = logger.Sync() }()

	// set up DB
	db, err := database.Open(context.Background(), conf)
	errAndDie(logger, err)
	defer func() { _ = db.Close() }()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:     db.DB,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(db), validate, translator),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Errorw("command failed", zap.Error(err))
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}

func errAndDie(logger *zap.SugaredLogger, err error) {
	if err != nil {
		logger.Fatalw("admin setup failed", zap.Error(err))
	}
}
