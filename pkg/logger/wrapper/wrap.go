package wrap

import (
	"context"
	"errors"
)

// logCtxError carries the log context of the place an error was produced so
// the caller that finally logs it reports the same action and ids.
type logCtxError struct {
	err    error
	logCtx LogCtx
}

func (e *logCtxError) Error() string { return e.err.Error() }

func (e *logCtxError) Unwrap() error { return e.err }

// Error attaches the LogCtx of ctx to err. The innermost context wins so the
// action that produced the error is the one reported.
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var e *logCtxError
	if errors.As(err, &e) {
		return err
	}

	return &logCtxError{
		err:    err,
		logCtx: fromContext(ctx),
	}
}

// ErrorCtx returns ctx carrying the LogCtx stored in err, or ctx unchanged
// when err has none.
func ErrorCtx(ctx context.Context, err error) context.Context {
	var e *logCtxError
	if errors.As(err, &e) && e != nil {
		return context.WithValue(ctx, LogCtxKey, e.logCtx)
	}
	return ctx
}
