package stats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlstad/goddc/pkg/threadstate"
	"github.com/mkarlstad/goddc/pkg/types"
)

func renderRetry(t *testing.T, r *Reporter, opts ...Option) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, r.RetryReport(&sb, opts...))
	return sb.String()
}

func TestRetryReport_EmptyRegistry(t *testing.T) {
	r := New(threadstate.NewRegistry(nil))

	out := renderRetry(t, r)

	assert.Contains(t, out, "Retry data for write read exchanges:")
	assert.Contains(t, out, "Max tries allowed: 10")
	assert.Contains(t, out, "No retry data recorded")
	assert.NotContains(t, out, "Total attempts:")
}

func TestRetryReport_SumsAcrossWorkers(t *testing.T) {
	reg := threadstate.NewRegistry(nil)
	a := reg.GetOrCreate(1)
	b := reg.GetOrCreate(2)
	a.RecordSuccess(types.WriteRead, 1)
	a.RecordSuccess(types.WriteRead, 3)
	b.RecordSuccess(types.WriteRead, 1)
	b.RecordExhausted(types.WriteRead)
	b.RecordFatal(types.WriteRead)

	out := renderRetry(t, New(reg), Classes(types.WriteRead))

	assert.Regexp(t, `1:\s+2\n`, out)
	assert.Regexp(t, `3:\s+1\n`, out)
	assert.Regexp(t, `Total successful attempts:\s+3\n`, out)
	assert.Regexp(t, `Failed due to max tries exceeded:\s+1\n`, out)
	assert.Regexp(t, `Failed due to fatal error:\s+1\n`, out)
	assert.Regexp(t, `Total attempts:\s+5\n`, out)
}

func TestRetryReport_ShowsBoundRange(t *testing.T) {
	reg := threadstate.NewRegistry(nil)
	a := reg.GetOrCreate(1)
	a.SetMaxTries(types.WriteRead, 4)
	a.RecordSuccess(types.WriteRead, 1)

	out := renderRetry(t, New(reg), Classes(types.WriteRead))

	// bound moved from the default 10 down to 4
	assert.Contains(t, out, "Max tries allowed: 4 .. 10")
}

func TestRetryReport_ClassFilter(t *testing.T) {
	reg := threadstate.NewRegistry(nil)
	reg.GetOrCreate(1).RecordSuccess(types.WriteOnly, 1)

	out := renderRetry(t, New(reg), Classes(types.WriteOnly))

	assert.Contains(t, out, "Retry data for write only exchanges:")
	assert.NotContains(t, out, "write read exchanges")
	assert.NotContains(t, out, "multi-part read exchanges")
}

func TestRetryReport_PerWorkerSections(t *testing.T) {
	reg := threadstate.NewRegistry(nil)
	a := reg.GetOrCreate(2)
	a.SetLabel("/dev/i2c-4")
	a.RecordSuccess(types.WriteRead, 1)
	reg.GetOrCreate(1).RecordSuccess(types.WriteRead, 2)

	out := renderRetry(t, New(reg), Classes(types.WriteRead), PerWorker())

	i1 := strings.Index(out, "Retry statistics for worker 1")
	i2 := strings.Index(out, "Retry statistics for worker 2 (/dev/i2c-4)")
	require.GreaterOrEqual(t, i1, 0)
	require.GreaterOrEqual(t, i2, 0)
	assert.Less(t, i1, i2, "worker sections should be in ascending id order")
}

func TestSleepReport(t *testing.T) {
	reg := threadstate.NewRegistry(nil)
	rec := reg.GetOrCreate(1)
	rec.SetSleepMultiplierFactor(2.0)
	rec.EnableDynamicSleep(true)
	rec.SetAdjustmentFactor(1.5)
	rec.RecordSleepEvent()
	rec.RecordSleepEvent()
	rec.RecordExchangeStatus(threadstate.StatusOK)
	rec.RecordExchangeStatus(threadstate.StatusError)

	var sb strings.Builder
	require.NoError(t, New(reg).SleepReport(&sb))
	out := sb.String()

	assert.Contains(t, out, "Sleep data for worker 1")
	assert.Regexp(t, `Sleep multiplier factor:\s+2\.00\n`, out)
	assert.Regexp(t, `Current adjustment factor:\s+1\.50\n`, out)
	assert.Regexp(t, `Exchanges ok/error/other:\s+1/1/0\n`, out)
	assert.Regexp(t, `Total sleep events:\s+2\n`, out)
}

func TestSleepReport_EmptyRegistry(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, New(threadstate.NewRegistry(nil)).SleepReport(&sb))
	assert.Contains(t, sb.String(), "No sleep data recorded")
}

func TestElapsedReport_CombinesBoth(t *testing.T) {
	reg := threadstate.NewRegistry(nil)
	reg.GetOrCreate(1).RecordSuccess(types.WriteRead, 1)

	var sb strings.Builder
	require.NoError(t, New(reg).ElapsedReport(&sb))
	out := sb.String()

	retryIdx := strings.Index(out, "Retry statistics")
	sleepIdx := strings.Index(out, "Sleep statistics")
	require.GreaterOrEqual(t, retryIdx, 0)
	require.GreaterOrEqual(t, sleepIdx, 0)
	assert.Less(t, retryIdx, sleepIdx)
}
