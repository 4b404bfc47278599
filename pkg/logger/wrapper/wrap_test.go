package wrap

import (
	"context"
	"errors"
	"testing"
)

func TestError_KeepsInnermostContext(t *testing.T) {
	base := errors.New("boom")

	inner := WithAction(context.Background(), "inner")
	err := Error(inner, base)

	outer := WithAction(context.Background(), "outer")
	err = Error(outer, err)

	restored := ErrorCtx(context.Background(), err)
	if got := fromContext(restored).Action; got != "inner" {
		t.Fatalf("expected inner action, got %q", got)
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error must unwrap to base")
	}
}

func TestError_Nil(t *testing.T) {
	if Error(context.Background(), nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
}

func TestWithLogCtx_Merges(t *testing.T) {
	ctx := WithDriverID(context.Background(), "d1")
	ctx = WithLogCtx(ctx, LogCtx{Action: "go_online"})

	lc := fromContext(ctx)
	if lc.DriverID != "d1" || lc.Action != "go_online" {
		t.Fatalf("unexpected log ctx: %+v", lc)
	}
}
