package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
	levelFatal
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// RollbarLogger prints to a std logger and reports to Rollbar when enabled.
type RollbarLogger struct {
	std      *log.Logger
	minLevel level
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	l := &RollbarLogger{std: std, minLevel: levelInfo}
	if conf.Debug {
		l.minLevel = levelDebug
	}
	return l
}

// Enable turns reporting to Rollbar on or off. An empty token keeps it off.
func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled && rollbar.Token() != "")
}

// Close waits for pending Rollbar reports.
func (l *RollbarLogger) Close() {
	rollbar.Wait()
}

// entry splits log args into the error, the extras and the logged in user.
// expected args: error, map[string]interface{}, user.User
type entry struct {
	msg    string
	err    error
	extras map[string]interface{}
	usr    *user.User
	other  []interface{}
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg}
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			if e.err == nil {
				e.err = v
				continue
			}
			e.other = append(e.other, v)
		case map[string]interface{}:
			if e.extras == nil {
				e.extras = make(map[string]interface{}, len(v))
			}
			for k, val := range v {
				e.extras[k] = val
			}
		case user.User:
			if e.usr == nil { // only set one User
				usr := v
				e.usr = &usr
			}
		default:
			e.other = append(e.other, v)
		}
	}
	return e
}

func (e entry) rollbarArgs() []interface{} {
	args := []interface{}{e.msg}
	if e.err != nil {
		args = append(args, e.err)
	}
	if len(e.extras) > 0 {
		args = append(args, e.extras)
	}
	return args
}

// String renders e on one line: msg, error then sorted extras.
func (e entry) String() string {
	var b strings.Builder
	b.WriteString(e.msg)
	if e.err != nil {
		b.WriteString(": ")
		b.WriteString(e.err.Error())
	}
	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.extras[k])
	}
	for _, o := range e.other {
		fmt.Fprintf(&b, " %+v", o)
	}
	if e.usr != nil {
		fmt.Fprintf(&b, " user=%s", e.usr.Username)
	}
	return b.String()
}

func (l *RollbarLogger) log(lvl level, report func(...interface{}), msg string, args []interface{}) entry {
	e := newEntry(msg, args)
	if lvl < l.minLevel {
		return e
	}
	if e.usr != nil {
		rollbar.SetPerson(e.usr.ID, e.usr.Username, e.usr.Email)
	} else {
		rollbar.ClearPerson()
	}
	report(e.rollbarArgs()...)
	l.std.Printf("%-5s %s", levelNames[lvl], e)
	return e
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(levelDebug, rollbar.Debug, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(levelInfo, rollbar.Info, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(levelWarn, rollbar.Warning, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(levelError, rollbar.Error, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(levelFatal, rollbar.Critical, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
