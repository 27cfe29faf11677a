package services

import (
	"context"
	"time"

	"rideshare/internal/models"
	"rideshare/internal/repositories/interfaces"
	"rideshare/pkg/events"
	"rideshare/pkg/logger"
	"rideshare/pkg/push"
)

// NotificationService fans committed ride changes out to the event stream and
// to driver devices. Failures are logged and never reach the caller.
type NotificationService interface {
	PublishRideEvent(ctx context.Context, event *models.RideEvent)
	NotifyDriver(ctx context.Context, driverID, title, body string, data map[string]string)
}

type notificationService struct {
	publisher  events.Publisher
	push       push.PushProvider
	driverRepo interfaces.DriverRepository
	logger     *logger.Logger
	timeout    time.Duration
}

// NewNotificationService wires the outbound channels. pushProvider may be nil
// when push delivery is disabled.
func NewNotificationService(
	publisher events.Publisher,
	pushProvider push.PushProvider,
	driverRepo interfaces.DriverRepository,
	logger *logger.Logger,
	timeout time.Duration,
) NotificationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &notificationService{
		publisher:  publisher,
		push:       pushProvider,
		driverRepo: driverRepo,
		logger:     logger,
		timeout:    storeTimeoutOrDefault(timeout),
	}
}

func (s *notificationService) PublishRideEvent(ctx context.Context, event *models.RideEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event.RideID, event); err != nil {
		s.logger.WithError(err).
			WithRideID(event.RideID).
			WithField("event", event.Type).
			Warn("Failed to publish ride event")
		return
	}

	s.logger.LogRideEvent(event.RideID, string(event.Type), map[string]interface{}{
		"from":     event.From,
		"to":       event.To,
		"actor_id": event.ActorID,
		"version":  event.Version,
	})
}

func (s *notificationService) NotifyDriver(ctx context.Context, driverID, title, body string, data map[string]string) {
	if s.push == nil || driverID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	driver, err := s.driverRepo.GetDriverByID(ctx, driverID)
	if err != nil {
		s.logger.WithError(err).WithField("driver_id", driverID).Warn("Failed to load driver for notification")
		return
	}
	if driver.DeviceToken == "" {
		return
	}

	resp, err := s.push.SendNotification(ctx, &push.NotificationRequest{
		Token:    driver.DeviceToken,
		Title:    title,
		Body:     body,
		Data:     data,
		Priority: "high",
	})
	if err != nil {
		s.logger.WithError(err).WithField("driver_id", driverID).Warn("Failed to send push notification")
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"driver_id":  driverID,
		"message_id": resp.MessageID,
	}).Debug("Push notification sent")
}
