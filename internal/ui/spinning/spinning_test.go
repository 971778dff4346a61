package spinning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithBudget_ZeroTimeoutNeverExpiresOnItsOwn(t *testing.T) {
	ctx, cancel := WithBudget(context.Background(), 0)
	defer cancel()
	select {
	case <-ctx.Done():
		t.Fatal("context should not be done with a zero budget")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestWithBudget_PositiveTimeoutExpires(t *testing.T) {
	ctx, cancel := WithBudget(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}

func TestNew_StartsAndStopsCleanly(t *testing.T) {
	s := New(context.Background())
	time.Sleep(5 * time.Millisecond)
	require.NotPanics(t, s.Done)
}

func TestThemes_AreNonEmpty(t *testing.T) {
	require.NotEmpty(t, ThemeAscii)
	require.NotEmpty(t, ThemeClock)
}
