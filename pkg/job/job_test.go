package job_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samandr77/crm/pkg/job"
)

func TestScheduler(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	var ok, failing, panicking atomic.Int32

	s := job.NewScheduler().
		Register("ok", 10*time.Millisecond, func(context.Context) error {
			ok.Add(1)
			return nil
		}).
		Register("failing", 10*time.Millisecond, func(context.Context) error {
			failing.Add(1)
			return errors.New("boom")
		}).
		Register("panicking", 10*time.Millisecond, func(context.Context) error {
			panicking.Add(1)
			panic("boom")
		}).
		TryRegister(false, "disabled", 10*time.Millisecond, func(context.Context) error {
			t.Error("disabled job must not run")
			return nil
		})

	s.Start(ctx)

	require.Eventually(t, func() bool {
		return ok.Load() >= 2 && failing.Load() >= 2 && panicking.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	s.Wait()
}
