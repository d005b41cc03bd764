package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
)

// fakeProvisioner tracks Ensure/Invalidate calls and hands out a new topic
// id after each invalidation.
type fakeProvisioner struct {
	topics        []string
	ensureCalls   int
	ensureErrs    []error
	invalidations int
	invalidateErr error
}

func (f *fakeProvisioner) EnsureTopic(_ context.Context, _ string) (string, error) {
	idx := f.ensureCalls
	f.ensureCalls++
	if idx < len(f.ensureErrs) && f.ensureErrs[idx] != nil {
		return "", f.ensureErrs[idx]
	}
	pick := f.invalidations
	if pick >= len(f.topics) {
		pick = len(f.topics) - 1
	}
	return f.topics[pick], nil
}

func (f *fakeProvisioner) Invalidate(_ context.Context, _ string) error {
	f.invalidations++
	return f.invalidateErr
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.FatalLevel)
	return l
}

func TestSendWithRecovery_SuccessFirstTry(t *testing.T) {
	prov := &fakeProvisioner{topics: []string{"42"}}
	r := NewRecoverySupervisor(prov, NewMetrics(), quietLogger())

	var sentTo []string
	err := r.SendWithRecovery(context.Background(), "thread-1", func(_ context.Context, topicID string) error {
		sentTo = append(sentTo, topicID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, sentTo)
	assert.Equal(t, 0, prov.invalidations)
}

func TestSendWithRecovery_MissingTopicReprovisionsOnce(t *testing.T) {
	prov := &fakeProvisioner{topics: []string{"42", "99"}}
	metrics := NewMetrics()
	r := NewRecoverySupervisor(prov, metrics, quietLogger())

	var sentTo []string
	err := r.SendWithRecovery(context.Background(), "thread-1", func(_ context.Context, topicID string) error {
		sentTo = append(sentTo, topicID)
		if topicID == "42" {
			return resourceMissingErr()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"42", "99"}, sentTo, "exactly one retry against the fresh topic")
	assert.Equal(t, 1, prov.invalidations)
	assert.Equal(t, 2, prov.ensureCalls)
	assert.Equal(t, int64(1), metrics.Get(MetricRecovered))
}

func TestSendWithRecovery_SecondFailureIsTerminal(t *testing.T) {
	prov := &fakeProvisioner{topics: []string{"42", "99"}}
	r := NewRecoverySupervisor(prov, NewMetrics(), quietLogger())

	calls := 0
	err := r.SendWithRecovery(context.Background(), "thread-1", func(_ context.Context, _ string) error {
		calls++
		return resourceMissingErr()
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls, "no second recovery cycle")
	assert.Equal(t, 1, prov.invalidations)
	assert.True(t, brerrors.IsResourceMissing(err))
	assert.Contains(t, err.Error(), "after topic re-provisioning")
}

func TestSendWithRecovery_TransientErrorDoesNotReprovision(t *testing.T) {
	prov := &fakeProvisioner{topics: []string{"42"}}
	r := NewRecoverySupervisor(prov, NewMetrics(), quietLogger())

	calls := 0
	err := r.SendWithRecovery(context.Background(), "thread-1", func(_ context.Context, _ string) error {
		calls++
		return transientErr()
	})

	require.Error(t, err)
	assert.True(t, brerrors.IsTransient(err))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, prov.invalidations, "transient failures must not tear down the mapping")
}

func TestSendWithRecovery_ProvisionFailureSurfaces(t *testing.T) {
	prov := &fakeProvisioner{topics: []string{"42"}, ensureErrs: []error{transientErr()}}
	r := NewRecoverySupervisor(prov, NewMetrics(), quietLogger())

	called := false
	err := r.SendWithRecovery(context.Background(), "thread-1", func(_ context.Context, _ string) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
}

func TestSendWithRecovery_ReprovisionFailureSurfaces(t *testing.T) {
	prov := &fakeProvisioner{topics: []string{"42"}, ensureErrs: []error{nil, transientErr()}}
	r := NewRecoverySupervisor(prov, NewMetrics(), quietLogger())

	calls := 0
	err := r.SendWithRecovery(context.Background(), "thread-1", func(_ context.Context, _ string) error {
		calls++
		return resourceMissingErr()
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "re-provision")
}

func TestSendWithRecovery_InvalidateFailureSurfaces(t *testing.T) {
	prov := &fakeProvisioner{
		topics:        []string{"42"},
		invalidateErr: brerrors.New(brerrors.ErrCodeStoreUnavailable, "db locked"),
	}
	r := NewRecoverySupervisor(prov, NewMetrics(), quietLogger())

	err := r.SendWithRecovery(context.Background(), "thread-1", func(_ context.Context, _ string) error {
		return resourceMissingErr()
	})

	require.Error(t, err)
	assert.True(t, brerrors.IsStoreUnavailable(err))
}
