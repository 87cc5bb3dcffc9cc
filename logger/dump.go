package logger

import "go.uber.org/multierr"

// LogFunc logs a value under a bare metric name.
type LogFunc func(name string, value any) error

// DumpScope logs a batch of metrics for one scope and step and dumps that
// scope exactly once when closed.
//
//	d := l.LogAndDump(step, logger.Eval)
//	defer d.Close()
//	d.Log("episode_reward", reward)
type DumpScope struct {
	logger *Logger
	step   int
	scope  Scope
	closed bool
}

// LogAndDump returns a DumpScope bound to step and scope.
func (l *Logger) LogAndDump(step int, scope Scope) *DumpScope {
	return &DumpScope{logger: l, step: step, scope: scope}
}

// Log records value as "<scope>/<name>" at the scope's step.
func (d *DumpScope) Log(name string, value any) error {
	return d.logger.Log(d.scope.Key(name), value, d.step)
}

// Close dumps the scope. Only the first call dumps.
func (d *DumpScope) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.logger.Dump(d.step, d.scope)
}

// WithDump runs fn with a LogFunc bound to step and scope and dumps the scope
// on every exit path. An error from fn is returned together with any dump
// error; a panic in fn is re-raised after the dump.
func (l *Logger) WithDump(step int, scope Scope, fn func(log LogFunc) error) (err error) {
	d := l.LogAndDump(step, scope)
	defer func() {
		r := recover()
		err = multierr.Append(err, d.Close())
		if r != nil {
			panic(r)
		}
	}()
	return fn(d.Log)
}
