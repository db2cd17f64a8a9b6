package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/bmwamba/darasa/core"
	"github.com/bmwamba/darasa/core/user"
)

// RollbarLogger reports to Rollbar and echoes to a standard logger.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.report(rollbar.Debug, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.report(rollbar.Info, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.report(rollbar.Warning, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.report(rollbar.Error, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.Critical, msg, args)
	l.std.Fatal(msg)
}

func (l RollbarLogger) report(send func(...interface{}), msg string, args []interface{}) {
	send(l.tagPerson(msg, args)...)
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

// tagPerson attributes the report to a user.User found in args (the first
// one wins) and strips users from the forwarded arguments.
func (l RollbarLogger) tagPerson(msg string, args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, msg)

	var tagged bool
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			if !tagged {
				rollbar.SetPerson(usr.ID, usr.Name, usr.Email)
				tagged = true
			}
			continue
		}
		out = append(out, arg)
	}
	if !tagged {
		rollbar.ClearPerson()
	}
	return out
}
