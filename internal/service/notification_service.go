package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/provision-service/internal/config"
	"github.com/spec-kit/provision-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventProvisionRequested, n.handleProvisionRequested)
	n.dispatcher.Subscribe(events.EventProvisionStatusChanged, n.handleProvisionStatusChanged)
	n.dispatcher.Subscribe(events.EventServiceCreated, n.handleServiceChanged)
	n.dispatcher.Subscribe(events.EventServiceUpdated, n.handleServiceChanged)
	n.dispatcher.Subscribe(events.EventServiceDeleted, n.handleServiceChanged)
}

func (n *NotificationService) handleProvisionRequested(ctx context.Context, event events.Event) error {
	n.logger.Info("ProvisionRequested", zap.String("provision_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleProvisionStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ProvisionStatusChanged", zap.String("provision_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleServiceChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("CatalogChanged", zap.String("service_id", event.SubjectID), zap.String("event_type", string(event.Type)))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
