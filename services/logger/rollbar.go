package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/ongoza/cyberhub/core"
	"github.com/ongoza/cyberhub/core/user"
)

// reporter is the part of rollbar used by the logger.
type reporter interface {
	Log(level string, args ...interface{})
	SetPerson(id, username, email string)
	ClearPerson()
}

type rollbarClient struct {
	*rollbar.Client
}

// RollbarLogger reports to rollbar and writes to a zap logger.
type RollbarLogger struct {
	sink     *zap.SugaredLogger
	reporter reporter
	exitFunc func()
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(sink *zap.Logger, conf *core.Config) *RollbarLogger {
	client := rollbar.New(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "")
	client.SetStackTracer(errors.StackTracer)
	client.SetEnabled(conf.RollbarToken != "")
	return &RollbarLogger{
		sink:     sink.Sugar(),
		reporter: rollbarClient{client},
		exitFunc: func() { _ = sink.Sync() },
	}
}

// NewZapLogger builds the zap sink: human readable in debug, JSON otherwise.
func NewZapLogger(conf *core.Config) (*zap.Logger, error) {
	var zc zap.Config
	if conf.Debug {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	return zc.Build(zap.Fields(zap.String("app", conf.AppName), zap.String("env", conf.Env)))
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []interface{}) {
	var usrSet bool
	reportArgs := make([]interface{}, 0, len(args)+1)
	reportArgs = append(reportArgs, msg)
	fields := make([]interface{}, 0, 2*len(args))
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if !usrSet { // only set one User
				l.reporter.SetPerson(a.ID, a.Name, a.Email)
				fields = append(fields, "user_id", a.ID)
				usrSet = true
			}
		case error:
			reportArgs = append(reportArgs, a)
			fields = append(fields, "error", a)
		case map[string]interface{}:
			reportArgs = append(reportArgs, a)
			for k, v := range a {
				fields = append(fields, k, v)
			}
		default:
			reportArgs = append(reportArgs, a)
			fields = append(fields, "extra", a)
		}
	}
	if !usrSet {
		l.reporter.ClearPerson()
	}
	return reportArgs, fields
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	reportArgs, fields := l.prepare(msg, args)
	l.reporter.Log(rollbar.DEBUG, reportArgs...)
	l.sink.Debugw(msg, fields...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	reportArgs, fields := l.prepare(msg, args)
	l.reporter.Log(rollbar.INFO, reportArgs...)
	l.sink.Infow(msg, fields...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	reportArgs, fields := l.prepare(msg, args)
	l.reporter.Log(rollbar.WARN, reportArgs...)
	l.sink.Warnw(msg, fields...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	reportArgs, fields := l.prepare(msg, args)
	l.reporter.Log(rollbar.ERR, reportArgs...)
	l.sink.Errorw(msg, fields...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	reportArgs, fields := l.prepare(msg, args)
	l.reporter.Log(rollbar.CRIT, reportArgs...)
	l.exitFunc()
	l.sink.Fatalw(msg, fields...)
}

// Close flushes pending rollbar reports and zap buffers.
func (l RollbarLogger) Close() {
	if c, ok := l.reporter.(rollbarClient); ok {
		c.Client.Close()
	}
	l.exitFunc()
}
