package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ongoza/cyberhub/core/user"
)

type logCall struct {
	level string
	args  []interface{}
}

type fakeReporter struct {
	calls  []logCall
	person string
}

func (r *fakeReporter) Log(level string, args ...interface{}) {
	r.calls = append(r.calls, logCall{level: level, args: args})
}
func (r *fakeReporter) SetPerson(id, _, _ string) { r.person = id }
func (r *fakeReporter) ClearPerson()             { r.person = "" }

func setup() (RollbarLogger, *fakeReporter, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	rep := &fakeReporter{}
	return RollbarLogger{
		sink:     zap.New(core).Sugar(),
		reporter: rep,
		exitFunc: func() {},
	}, rep, logs
}

func TestRollbarLogger(t *testing.T) {
	logger, rep, logs := setup()
	err := errors.New("boom")
	usr := user.User{ID: "u1", Name: "Amina", Email: "amina@test.io"}

	logger.Error("saving result", err, map[string]interface{}{"session_id": "s1"}, usr)

	require.Len(t, rep.calls, 1)
	assert.Equal(t, rollbar.ERR, rep.calls[0].level)
	assert.Equal(t, []interface{}{"saving result", err, map[string]interface{}{"session_id": "s1"}}, rep.calls[0].args)
	assert.Equal(t, "u1", rep.person)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "saving result", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "s1", ctx["session_id"])
	assert.Equal(t, "u1", ctx["user_id"])
	assert.Equal(t, "boom", ctx["error"])

	logger.Info("no user")
	assert.Empty(t, rep.person, "person is cleared when no user is given")
	assert.Equal(t, rollbar.INFO, rep.calls[1].level)
}

func TestRollbarLogger_Levels(t *testing.T) {
	logger, rep, logs := setup()

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	levels := make([]string, 0, len(rep.calls))
	for _, c := range rep.calls {
		levels = append(levels, c.level)
	}
	assert.Equal(t, []string{rollbar.DEBUG, rollbar.INFO, rollbar.WARN, rollbar.ERR}, levels)

	zapLevels := make([]zapcore.Level, 0, logs.Len())
	for _, e := range logs.All() {
		zapLevels = append(zapLevels, e.Level)
	}
	assert.Equal(t, []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}, zapLevels)
}
