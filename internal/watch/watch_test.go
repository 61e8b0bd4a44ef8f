package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eshc-lang/eshc/internal/watch"
)

func TestRunFiresOnStartupAndOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.esh")
	require.NoError(t, os.WriteFile(path, []byte("func f() -> num { return 1; }"), 0o644))

	var calls int32
	var errs int32
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- watch.Run(ctx, path, func() error {
			atomic.AddInt32(&calls, 1)
			return nil
		}, func(error) {
			atomic.AddInt32(&errs, 1)
		})
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("func f() -> num { return 2; }"), 0o644))

	<-done
	require.GreaterOrEqual(t, int(atomic.LoadInt32(&calls)), 2, "one call on startup plus at least one for the write")
	require.Equal(t, int32(0), atomic.LoadInt32(&errs))
}
