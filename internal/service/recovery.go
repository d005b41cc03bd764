package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
)

// SendOperation delivers an already translated operation to a concrete
// destination topic.
type SendOperation func(ctx context.Context, topicID string) error

// RecoverySupervisor wraps sends so a destination topic deleted out from
// under us heals transparently: the stale mapping is invalidated, a fresh
// topic is provisioned and the send retried exactly once. Any other error,
// and any failure on the retried send, surfaces to the caller unchanged.
type RecoverySupervisor struct {
	provisioner TopicProvisioner
	metrics     *Metrics
	logger      *logrus.Logger
}

func NewRecoverySupervisor(provisioner TopicProvisioner, metrics *Metrics, logger *logrus.Logger) *RecoverySupervisor {
	return &RecoverySupervisor{provisioner: provisioner, metrics: metrics, logger: logger}
}

func (r *RecoverySupervisor) SendWithRecovery(ctx context.Context, threadID string, send SendOperation) error {
	topicID, err := r.provisioner.EnsureTopic(ctx, threadID)
	if err != nil {
		return err
	}

	err = send(ctx, topicID)
	if err == nil {
		return nil
	}
	if !brerrors.IsResourceMissing(err) {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"threadId": threadID,
		"topicId":  topicID,
	}).Warn("Destination topic missing, re-provisioning")

	if invErr := r.provisioner.Invalidate(ctx, threadID); invErr != nil {
		return fmt.Errorf("failed to invalidate stale mapping for thread %s: %w", threadID, invErr)
	}

	newTopicID, err := r.provisioner.EnsureTopic(ctx, threadID)
	if err != nil {
		return fmt.Errorf("failed to re-provision topic for thread %s: %w", threadID, err)
	}

	// One retry only: a second failure on a topic we just created is not a
	// stale-mapping problem and must not loop.
	if err := send(ctx, newTopicID); err != nil {
		return fmt.Errorf("send failed after topic re-provisioning: %w", err)
	}

	r.metrics.Inc(MetricRecovered)
	r.logger.WithFields(logrus.Fields{
		"threadId":   threadID,
		"oldTopicId": topicID,
		"newTopicId": newTopicID,
	}).Info("Recovered from missing destination topic")
	return nil
}
