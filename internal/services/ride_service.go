package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"rideshare/internal/models"
	"rideshare/internal/observability"
	"rideshare/internal/repositories/interfaces"
	"rideshare/internal/utils"
	"rideshare/internal/validators"
	"rideshare/pkg/logger"
)

type RideService interface {
	RequestRide(ctx context.Context, identity *models.Identity, req *models.CreateRideRequest) (*models.Ride, error)
	GetRide(ctx context.Context, rideID string) (*models.Ride, error)

	// Lifecycle
	AssignDriver(ctx context.Context, identity *models.Identity, rideID, driverID string) (*models.Ride, error)
	AutoAssign(ctx context.Context, identity *models.Identity, rideID string) (*models.Ride, error)
	BookSeats(ctx context.Context, identity *models.Identity, rideID string, seats int) (*models.Ride, error)
	StartRide(ctx context.Context, identity *models.Identity, rideID string) (*models.Ride, error)
	CompleteRide(ctx context.Context, identity *models.Identity, rideID string) (*models.Ride, error)
	CancelRide(ctx context.Context, identity *models.Identity, rideID, reason string) (*models.Ride, error)

	// Listing
	ListDriverRides(ctx context.Context, driverID string, statuses []models.RideStatus) ([]*models.Ride, error)
	ListRiderRides(ctx context.Context, riderID string, skip, limit int) ([]*models.Ride, error)

	// Recurring rides
	MaterializeOccurrences(ctx context.Context, identity *models.Identity, templateID string, from, to time.Time) ([]*models.Ride, error)
	DeactivateTemplate(ctx context.Context, identity *models.Identity, templateID string) (*models.Ride, error)
	ListOccurrences(ctx context.Context, templateID string) ([]*models.Ride, error)
}

type RideConfig struct {
	MaxRetries        int
	StoreTimeout      time.Duration
	DefaultCandidates int
}

type rideService struct {
	rideRepo      interfaces.RideRepository
	driverRepo    interfaces.DriverRepository
	geo           GeoService
	matching      MatchingService
	notifications NotificationService
	logger        *logger.Logger
	config        RideConfig
}

func NewRideService(
	rideRepo interfaces.RideRepository,
	driverRepo interfaces.DriverRepository,
	geo GeoService,
	matching MatchingService,
	notifications NotificationService,
	logger *logger.Logger,
	config RideConfig,
) RideService {
	config.StoreTimeout = storeTimeoutOrDefault(config.StoreTimeout)
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.DefaultCandidates <= 0 {
		config.DefaultCandidates = 5
	}

	return &rideService{
		rideRepo:      rideRepo,
		driverRepo:    driverRepo,
		geo:           geo,
		matching:      matching,
		notifications: notifications,
		logger:        logger,
		config:        config,
	}
}

func (s *rideService) RequestRide(ctx context.Context, identity *models.Identity, req *models.CreateRideRequest) (*models.Ride, error) {
	if err := validators.Validate(req); err != nil {
		return nil, err
	}
	if req.Recurring && len(req.RideDays) == 0 {
		return nil, utils.NewError(utils.KindValidation, "recurring rides need at least one ride day").
			With("ride_days", "required")
	}
	if !req.Recurring && len(req.RideDays) > 0 {
		return nil, utils.NewError(utils.KindValidation, "ride days are only allowed on recurring rides").
			With("ride_days", "not allowed")
	}

	estimate, err := s.geo.DistanceAndETA(ctx, req.Origin.Coordinate, req.Destination.Coordinate)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	scheduledAt := now
	if req.ScheduledAt != nil {
		scheduledAt = req.ScheduledAt.UTC().Truncate(time.Millisecond)
	}

	waypoints := make([]models.Location, 0, len(req.Waypoints))
	for _, w := range req.Waypoints {
		waypoints = append(waypoints, w.Location())
	}

	ride := &models.Ride{
		ID:             primitive.NewObjectID().Hex(),
		RiderID:        identity.UserID,
		Origin:         req.Origin.Location(),
		Destination:    req.Destination.Location(),
		Waypoints:      waypoints,
		ScheduledAt:    scheduledAt,
		AvailableSeats: req.Seats,
		Status:         models.RideStatusRequesting,
		Recurring:      req.Recurring,
		RideDays:       req.RideDays,
		Active:         true,
		Priority:       req.Priority,
		Distance:       estimate.DistanceMeters,
		Duration:       estimate.ETASeconds,
		CarType:        req.CarType,
		Bookings:       []models.Booking{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	err = s.rideRepo.CreateRide(storeCtx, ride)
	cancel()
	if err != nil {
		observability.RideTransitionsTotal.WithLabelValues(string(models.RideEventRequested), "error").Inc()
		return nil, err
	}

	observability.RideTransitionsTotal.WithLabelValues(string(models.RideEventRequested), "ok").Inc()
	s.notifications.PublishRideEvent(ctx, &models.RideEvent{
		RideID:     ride.ID,
		Type:       models.RideEventRequested,
		To:         ride.Status,
		ActorID:    identity.UserID,
		Version:    ride.Version,
		OccurredAt: now,
	})

	return ride, nil
}

func (s *rideService) GetRide(ctx context.Context, rideID string) (*models.Ride, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()
	return s.rideRepo.GetRideByID(ctx, rideID)
}

func (s *rideService) AssignDriver(ctx context.Context, identity *models.Identity, rideID, driverID string) (*models.Ride, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	driver, err := s.driverRepo.GetDriverByID(storeCtx, driverID)
	cancel()
	if err != nil {
		return nil, err
	}

	ride, err := s.mutate(ctx, rideID, models.RideEventAssigned, identity.UserID, func(ride *models.Ride, at time.Time) error {
		if ride.RiderID != identity.UserID && driver.ID != identity.UserID {
			return utils.ErrForbidden.With("ride_id", ride.ID).With("reason", "only the rider or the driver can assign")
		}
		return applyAssign(ride, driver, at)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyDriver(ctx, driver.ID, "New ride assigned", "You have been assigned a ride", map[string]string{
		"ride_id": ride.ID,
		"type":    string(models.RideEventAssigned),
	})

	return ride, nil
}

// AutoAssign matches drivers around the ride's origin and assigns the best one
// that accepts. Candidates that became unavailable in the meantime are skipped.
func (s *rideService) AutoAssign(ctx context.Context, identity *models.Identity, rideID string) (*models.Ride, error) {
	ride, err := s.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != identity.UserID {
		return nil, utils.ErrForbidden.With("ride_id", ride.ID).With("reason", "only the rider can auto-assign")
	}
	if err := checkTransition(ride, models.RideEventAssigned); err != nil {
		return nil, err
	}

	session := models.NewBookingSession(identity.UserID, ride.Origin.Coordinate())
	destination := ride.Destination.Coordinate()
	session.Destination = &destination
	session.SelectRide(ride.ID)

	matches, err := s.matching.FindDrivers(ctx, session, s.config.DefaultCandidates)
	if err != nil {
		return nil, err
	}

	for _, match := range matches {
		assigned, err := s.AssignDriver(ctx, identity, ride.ID, match.Driver.ID)
		if err == nil {
			session.SelectDriver(match.Driver.ID)
			s.logger.WithRideID(ride.ID).WithFields(map[string]interface{}{
				"driver_id":   session.SelectedDriverID,
				"eta_seconds": match.ETASeconds,
			}).Info("Ride auto-assigned")
			return assigned, nil
		}
		if utils.KindOf(err) == utils.KindInvalidRideState && utils.ContextOf(err)["driver_id"] != "" {
			continue
		}
		return nil, err
	}

	return nil, utils.NewError(utils.KindNotFound, "no available drivers near the pickup").With("ride_id", ride.ID)
}

func (s *rideService) BookSeats(ctx context.Context, identity *models.Identity, rideID string, seats int) (*models.Ride, error) {
	if seats < 1 {
		return nil, utils.NewError(utils.KindValidation, "seats must be at least 1").With("ride_id", rideID)
	}

	ride, err := s.mutate(ctx, rideID, models.RideEventBooked, identity.UserID, func(ride *models.Ride, at time.Time) error {
		return applyBook(ride, identity.UserID, seats, at)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyDriver(ctx, *ride.DriverID, "Seats booked", fmt.Sprintf("%d seat(s) booked on your ride", seats), map[string]string{
		"ride_id":         ride.ID,
		"type":            string(models.RideEventBooked),
		"available_seats": strconv.Itoa(ride.AvailableSeats),
	})

	return ride, nil
}

func (s *rideService) StartRide(ctx context.Context, identity *models.Identity, rideID string) (*models.Ride, error) {
	return s.mutate(ctx, rideID, models.RideEventStarted, identity.UserID, func(ride *models.Ride, at time.Time) error {
		return applyStart(ride, identity.UserID, at)
	})
}

func (s *rideService) CompleteRide(ctx context.Context, identity *models.Identity, rideID string) (*models.Ride, error) {
	return s.mutate(ctx, rideID, models.RideEventCompleted, identity.UserID, func(ride *models.Ride, at time.Time) error {
		return applyComplete(ride, identity.UserID, at)
	})
}

func (s *rideService) CancelRide(ctx context.Context, identity *models.Identity, rideID, reason string) (*models.Ride, error) {
	return s.mutate(ctx, rideID, models.RideEventCancelled, identity.UserID, func(ride *models.Ride, at time.Time) error {
		return applyCancel(ride, identity.UserID, reason, at)
	})
}

func (s *rideService) DeactivateTemplate(ctx context.Context, identity *models.Identity, templateID string) (*models.Ride, error) {
	return s.mutate(ctx, templateID, models.RideEventDeactivated, identity.UserID, func(ride *models.Ride, at time.Time) error {
		return applyDeactivate(ride, identity.UserID, at)
	})
}

func (s *rideService) ListDriverRides(ctx context.Context, driverID string, statuses []models.RideStatus) ([]*models.Ride, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()
	return s.rideRepo.GetRidesByDriver(ctx, driverID, statuses)
}

func (s *rideService) ListRiderRides(ctx context.Context, riderID string, skip, limit int) ([]*models.Ride, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()
	return s.rideRepo.GetRidesByRider(ctx, riderID, skip, limit)
}

// MaterializeOccurrences creates one ride per template weekday in [from, to)
// at the template's time of day. Occurrence ids are derived from the date, so
// repeating a call returns the same rides without creating new ones.
func (s *rideService) MaterializeOccurrences(ctx context.Context, identity *models.Identity, templateID string, from, to time.Time) ([]*models.Ride, error) {
	from, to = from.UTC(), to.UTC()
	if !to.After(from) {
		return nil, utils.NewError(utils.KindValidation, "to must be after from")
	}
	if to.Sub(from) > utils.MaxOccurrenceWindow {
		return nil, utils.NewError(utils.KindValidation, "occurrence window too large").
			With("max", utils.MaxOccurrenceWindow.String())
	}

	template, err := s.GetRide(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !template.IsTemplate() {
		return nil, invalidTransition(template, "materialize").With("reason", "not a recurring template")
	}
	if !template.Active {
		return nil, invalidTransition(template, "materialize").With("reason", "template inactive")
	}
	if template.RiderID != identity.UserID {
		return nil, utils.ErrForbidden.With("ride_id", template.ID).With("reason", "only the owner can materialize")
	}

	occurrences := make([]*models.Ride, 0)
	timeOfDay := utils.TimeOfDay(template.ScheduledAt.UTC())
	for day := utils.StartOfDay(from); day.Before(to); day = day.AddDate(0, 0, 1) {
		at := day.Add(timeOfDay)
		if at.Before(from) || !at.Before(to) || !template.RunsOn(models.WeekdayOf(at)) {
			continue
		}

		occurrence := newOccurrence(template, at, timeNow())
		storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
		created, err := s.rideRepo.CreateOccurrence(storeCtx, occurrence)
		if err == nil && !created {
			occurrence, err = s.rideRepo.GetRideByID(storeCtx, occurrence.ID)
		}
		cancel()
		if err != nil {
			return nil, err
		}

		if created {
			s.logger.LogRideEvent(occurrence.ID, "occurrence_created", map[string]interface{}{
				"template_id":  template.ID,
				"scheduled_at": utils.FormatTimeISO(at),
			})
		}
		occurrences = append(occurrences, occurrence)
	}

	return occurrences, nil
}

// ListOccurrences returns the rides materialized from a template, earliest first.
func (s *rideService) ListOccurrences(ctx context.Context, templateID string) ([]*models.Ride, error) {
	template, err := s.GetRide(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !template.IsTemplate() {
		return nil, invalidTransition(template, "list_occurrences").With("reason", "not a recurring template")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()
	return s.rideRepo.GetOccurrences(ctx, template.ID)
}

func newOccurrence(template *models.Ride, at, now time.Time) *models.Ride {
	templateID := template.ID
	occurrence := template.Clone()

	occurrence.ID = fmt.Sprintf("%s-%s", template.ID, at.Format("20060102"))
	occurrence.TemplateID = &templateID
	occurrence.RideDays = nil
	occurrence.ScheduledAt = at
	occurrence.Status = models.RideStatusRequesting
	occurrence.DriverID = nil
	occurrence.Capacity = 0
	occurrence.Bookings = []models.Booking{}
	occurrence.Version = 0
	occurrence.Active = true
	occurrence.CancelledBy = ""
	occurrence.CancellationReason = ""
	occurrence.AssignedAt = nil
	occurrence.StartedAt = nil
	occurrence.CompletedAt = nil
	occurrence.CancelledAt = nil
	occurrence.CreatedAt = now
	occurrence.UpdatedAt = now
	return occurrence
}

// mutate runs read, apply, compare-and-set, re-reading after each lost race.
func (s *rideService) mutate(
	ctx context.Context,
	rideID string,
	event models.RideEventType,
	actorID string,
	apply func(ride *models.Ride, at time.Time) error,
) (*models.Ride, error) {
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, utils.WrapError(utils.KindProviderUnavailable, "request cancelled", err).With("ride_id", rideID)
		}

		current, err := s.GetRide(ctx, rideID)
		if err != nil {
			s.recordOutcome(event, err)
			return nil, err
		}

		next := current.Clone()
		at := timeNow()
		if err := apply(next, at); err != nil {
			s.recordOutcome(event, err)
			return nil, err
		}

		storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
		err = s.rideRepo.CompareAndSwap(storeCtx, next, current.Version)
		cancel()
		if err == nil {
			s.recordOutcome(event, nil)
			s.notifications.PublishRideEvent(ctx, rideEvent(current, next, event, actorID, at))
			return next, nil
		}
		if !errors.Is(err, utils.ErrConflict) {
			s.recordOutcome(event, err)
			return nil, err
		}

		observability.RideConflictsTotal.WithLabelValues(string(event)).Inc()
		s.logger.WithRideID(rideID).
			WithField("event", event).
			WithField("attempt", attempt+1).
			Debug("Ride update lost a race, retrying")
		lastErr = err
	}

	s.recordOutcome(event, lastErr)
	var appErr *utils.AppError
	if errors.As(lastErr, &appErr) {
		return nil, appErr.With("event", string(event)).With("attempts", strconv.Itoa(s.config.MaxRetries+1))
	}
	return nil, lastErr
}

func (s *rideService) recordOutcome(event models.RideEventType, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(utils.KindOf(err))
	}
	observability.RideTransitionsTotal.WithLabelValues(string(event), outcome).Inc()
}

func rideEvent(before, after *models.Ride, event models.RideEventType, actorID string, at time.Time) *models.RideEvent {
	e := &models.RideEvent{
		RideID:     after.ID,
		Type:       event,
		From:       before.Status,
		To:         after.Status,
		ActorID:    actorID,
		Version:    after.Version,
		OccurredAt: at,
	}
	switch {
	case after.HasDriver():
		e.DriverID = *after.DriverID
	case before.HasDriver():
		e.DriverID = *before.DriverID
	}
	if event == models.RideEventBooked {
		e.Seats = before.AvailableSeats - after.AvailableSeats
	}
	return e
}

// timeNow is truncated to milliseconds to match what the store keeps.
func timeNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
