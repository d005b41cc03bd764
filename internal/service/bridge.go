package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
	"github.com/itxrex07/insta-sub000/internal/models"
	"github.com/itxrex07/insta-sub000/internal/tracing"
	igtypes "github.com/itxrex07/insta-sub000/pkg/instagram/types"
	"github.com/itxrex07/insta-sub000/pkg/media"
	"github.com/itxrex07/insta-sub000/pkg/telegram"
)

// Bridge is the single entry point for message flow in both directions.
type Bridge interface {
	// Forward carries an inbound Instagram message to its Telegram topic,
	// provisioning the topic if needed.
	Forward(ctx context.Context, msg *models.Message) error
	// Receive carries an outbound Telegram topic message back to its
	// Instagram thread. Messages in unmapped topics are skipped, not errors.
	Receive(ctx context.Context, msg *models.Message) error
	// WarmCache rebuilds the in-memory mapping cache from the store.
	WarmCache(ctx context.Context) error
}

type bridge struct {
	instagram  igtypes.Client
	telegram   telegram.Client
	store      Store
	cache      *MappingCache
	translator *Translator
	filter     *FilterRuleSet
	recovery   *RecoverySupervisor
	media      media.Handler
	profiles   *ProfileService
	metrics    *Metrics
	logger     *logrus.Logger
}

// BridgeDeps carries the wired collaborators; all fields are required.
type BridgeDeps struct {
	Instagram  igtypes.Client
	Telegram   telegram.Client
	Store      Store
	Cache      *MappingCache
	Translator *Translator
	Filter     *FilterRuleSet
	Recovery   *RecoverySupervisor
	Media      media.Handler
	Profiles   *ProfileService
	Metrics    *Metrics
	Logger     *logrus.Logger
}

func NewBridge(deps BridgeDeps) Bridge {
	return &bridge{
		instagram:  deps.Instagram,
		telegram:   deps.Telegram,
		store:      deps.Store,
		cache:      deps.Cache,
		translator: deps.Translator,
		filter:     deps.Filter,
		recovery:   deps.Recovery,
		media:      deps.Media,
		profiles:   deps.Profiles,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

func (b *bridge) Forward(ctx context.Context, msg *models.Message) error {
	ctx, span := tracing.StartSpan(ctx, "bridge.forward")
	defer span.End()

	if msg == nil || msg.ThreadID == "" {
		return brerrors.New(brerrors.ErrCodeInternal, "message missing thread id")
	}

	log := b.logger.WithFields(logrus.Fields{
		"threadId":  msg.ThreadID,
		"messageId": msg.ID,
		"kind":      msg.Kind,
	})
	tracing.AddSpanAttributes(ctx,
		attribute.String("message.kind", string(msg.Kind)),
		attribute.String("message.direction", string(models.DirectionInbound)),
	)

	if b.filter.ShouldBlock(msg) {
		b.metrics.Inc(MetricFiltered)
		log.Info("Message blocked by filter rules")
		return nil
	}

	b.profiles.RecordMessage(ctx, msg)
	if msg.SenderDisplayName == "" {
		msg.SenderDisplayName = b.profiles.GetDisplayName(ctx, msg.SenderID, msg.SenderID)
	}

	ops, degraded := b.translator.ToDestination(msg)
	if degraded != nil {
		log.WithError(degraded).Debug("Message kind degraded to text fallback")
	}

	for _, op := range ops {
		op := op
		err := b.recovery.SendWithRecovery(ctx, msg.ThreadID, func(ctx context.Context, topicID string) error {
			return b.deliverToTopic(ctx, topicID, op)
		})
		if err != nil {
			b.metrics.Inc(MetricFailed)
			tracing.RecordError(ctx, err)
			log.WithError(err).Error("Failed to forward message")
			return err
		}
	}

	if err := b.store.TouchMapping(ctx, msg.ThreadID, time.Now()); err != nil {
		log.WithError(err).Warn("Failed to update thread activity")
	}

	b.metrics.Inc(MetricForwarded)
	log.Debug("Message forwarded")
	return nil
}

func (b *bridge) deliverToTopic(ctx context.Context, topicID string, op models.SendOp) error {
	if op.Type == models.SendOpText || op.MediaURL == "" {
		_, err := b.telegram.SendText(ctx, topicID, op.Text)
		return err
	}

	staged, err := b.media.Transfer(ctx, op.MediaURL, kindForOp(op.Type))
	if err != nil {
		return err
	}
	defer b.media.Discard(staged)
	b.metrics.Inc(MetricMediaTransfers)

	switch op.Type {
	case models.SendOpPhoto:
		_, err = b.telegram.SendPhoto(ctx, topicID, staged, op.Text)
	case models.SendOpVideo:
		_, err = b.telegram.SendVideo(ctx, topicID, staged, op.Text)
	default:
		_, err = b.telegram.SendDocument(ctx, topicID, staged, op.Text)
	}
	return err
}

func (b *bridge) Receive(ctx context.Context, msg *models.Message) error {
	ctx, span := tracing.StartSpan(ctx, "bridge.receive")
	defer span.End()

	if msg == nil || msg.ThreadID == "" {
		return brerrors.New(brerrors.ErrCodeInternal, "message missing topic id")
	}
	topicID := msg.ThreadID

	log := b.logger.WithFields(logrus.Fields{
		"topicId":   topicID,
		"messageId": msg.ID,
		"kind":      msg.Kind,
	})

	if b.filter.ShouldBlock(msg) {
		b.metrics.Inc(MetricFiltered)
		log.Info("Message blocked by filter rules")
		return nil
	}

	mapping, err := b.resolveTopic(ctx, topicID)
	if err != nil {
		return err
	}
	if mapping == nil {
		// Non-forum chatter (e.g. the General topic) lands here; nothing to
		// bridge.
		log.Debug("No thread mapped to topic, skipping")
		return nil
	}

	ops, degraded := b.translator.ToSource(msg)
	if degraded != nil {
		log.WithError(degraded).Debug("Message kind degraded to text fallback")
	}

	for _, op := range ops {
		if err := b.deliverToThread(ctx, mapping.ThreadID, op); err != nil {
			b.metrics.Inc(MetricFailed)
			tracing.RecordError(ctx, err)
			log.WithError(err).Error("Failed to deliver reply to Instagram")
			return err
		}
	}

	if err := b.store.TouchMapping(ctx, mapping.ThreadID, time.Now()); err != nil {
		log.WithError(err).Warn("Failed to update thread activity")
	}

	b.metrics.Inc(MetricReceived)
	log.Debug("Reply delivered")
	return nil
}

func (b *bridge) deliverToThread(ctx context.Context, threadID string, op models.SendOp) error {
	if op.Type == models.SendOpText || op.MediaURL == "" {
		_, err := b.instagram.SendText(ctx, threadID, op.Text)
		return err
	}

	staged, err := b.media.Transfer(ctx, op.MediaURL, kindForOp(op.Type))
	if err != nil {
		return err
	}
	defer b.media.Discard(staged)
	b.metrics.Inc(MetricMediaTransfers)

	switch op.Type {
	case models.SendOpVideo:
		_, err = b.instagram.SendVideo(ctx, threadID, staged, op.Text)
	default:
		_, err = b.instagram.SendPhoto(ctx, threadID, staged, op.Text)
	}
	return err
}

func (b *bridge) resolveTopic(ctx context.Context, topicID string) (*models.ThreadMapping, error) {
	if m, ok := b.cache.GetByTopic(topicID); ok {
		return &m, nil
	}
	mapping, err := b.store.GetMappingByTopicID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if mapping != nil {
		b.cache.Put(*mapping)
	}
	return mapping, nil
}

func (b *bridge) WarmCache(ctx context.Context) error {
	mappings, err := b.store.ListMappings(ctx)
	if err != nil {
		return err
	}
	b.cache.Warm(mappings)
	b.logger.WithField("mappings", len(mappings)).Info("Mapping cache warmed")
	return nil
}

func kindForOp(t models.SendOpType) models.MessageKind {
	switch t {
	case models.SendOpPhoto:
		return models.KindImage
	case models.SendOpVideo:
		return models.KindVideo
	default:
		return models.KindDocument
	}
}
