package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

// RollbarLogger prints to a standard logger and reports to Rollbar while enabled.
// Context args may be an error, a map[string]interface{} of fields or the acting user.User.
type RollbarLogger struct {
	std   *log.Logger
	debug bool // print Debug messages
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.log(rollbar.DEBUG, msg, args)
	}
}

func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	var (
		usr    *user.User
		err    error
		fields = make(map[string]interface{})
	)
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if usr == nil { // first user wins
				u := v
				usr = &u
			}
		case error:
			if err == nil {
				err = v
			}
		case map[string]interface{}:
			for k, val := range v {
				fields[k] = val
			}
		default:
			fields[fmt.Sprintf("arg%d", len(fields))] = v
		}
	}

	l.std.Println(formatLine(level, msg, err, fields))

	if usr != nil {
		rollbar.SetPerson(usr.ID, usr.Name, usr.LoginID)
	} else {
		rollbar.ClearPerson()
	}
	if err != nil {
		rollbar.ErrorWithExtras(level, err, withMessage(fields, msg))
		return
	}
	rollbar.MessageWithExtras(level, msg, fields)
}

// formatLine renders `LEVEL msg key=value ... error=...` with keys sorted.
func formatLine(level, msg string, err error, fields map[string]interface{}) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(level))
	b.WriteByte(' ')
	b.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	if err != nil {
		_, _ = fmt.Fprintf(&b, " error=%q", err.Error())
	}
	return b.String()
}

func withMessage(fields map[string]interface{}, msg string) map[string]interface{} {
	extras := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		extras[k] = v
	}
	extras["message"] = msg
	return extras
}
