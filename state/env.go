// Package state carries program environment through command context.
package state

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"stylec/config"
)

type envKey struct{}

// CompileOptions are compile command settings which come from command line
// only.
type CompileOptions struct {
	Overwrite bool // replace existing results
	Classes   bool // write class map next to every produced sheet
}

// LocalEnv is created once per program run, before command line is parsed,
// and is filled by Before hook.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report // nil unless debug report was requested
	Log *zap.Logger

	Compile CompileOptions
	Stdout  io.Writer // results written to "-" go here

	start   time.Time
	restore func()
}

// ContextWithEnv attaches fresh environment to ctx.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now(), Stdout: os.Stdout})
}

// EnvFromContext returns environment attached by ContextWithEnv. Commands are
// always run with one, so absence is a programming error.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(envKey{}).(*LocalEnv)
	if !ok {
		panic("state: no environment in context")
	}
	return env
}

// Uptime is time since environment was created.
func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// RedirectStdLog sends output of standard library logger to Log at info
// level until RestoreStdLog is called.
func (e *LocalEnv) RedirectStdLog() {
	if e.Log != nil {
		e.restore = zap.RedirectStdLog(e.Log)
	}
}

// RestoreStdLog flushes Log and undoes RedirectStdLog.
func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restore != nil {
		e.restore()
		e.restore = nil
	}
}
