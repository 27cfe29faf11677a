package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"rideshare/internal/models"
	"rideshare/internal/utils"
	"rideshare/pkg/logger"
)

type rideFixture struct {
	svc     RideService
	rides   *memoryRideRepo
	drivers *memoryDriverRepo
	ratings *memoryRatingRepo
	events  *recordingNotifications
}

func newRideFixture(t *testing.T, maxRetries int, drivers ...*models.Driver) *rideFixture {
	t.Helper()
	log := logger.NewNop()
	rides := newMemoryRideRepo()
	driverRepo := newMemoryDriverRepo(drivers...)
	geo := NewGeoService(nil, nil, log, GeoConfig{})
	matching := NewMatchingService(driverRepo, geo, log, MatchingConfig{Concurrency: 4, RadiusKM: 10, CandidateLimit: 50})
	events := &recordingNotifications{}

	return &rideFixture{
		svc:     NewRideService(rides, driverRepo, geo, matching, events, log, RideConfig{MaxRetries: maxRetries}),
		rides:   rides,
		drivers: driverRepo,
		ratings: &memoryRatingRepo{},
		events:  events,
	}
}

var (
	riderAlice = &models.Identity{UserID: "rider-alice", Name: "Alice"}
	riderBob   = &models.Identity{UserID: "rider-bob", Name: "Bob"}
	driverDan  = &models.Identity{UserID: "driver-dan", Name: "Dan", IsDriver: true}
)

func rideRequest(seats int) *models.CreateRideRequest {
	return &models.CreateRideRequest{
		Origin:      models.Place{Coordinate: models.Coordinate{Latitude: 40.7128, Longitude: -74.0060}, Address: "City Hall"},
		Destination: models.Place{Coordinate: models.Coordinate{Latitude: 40.7580, Longitude: -73.9855}, Address: "Times Square"},
		Seats:       seats,
	}
}

func (f *rideFixture) assignedRide(t *testing.T, seats int) *models.Ride {
	t.Helper()
	ctx := context.Background()
	ride, err := f.svc.RequestRide(ctx, riderAlice, rideRequest(seats))
	if err != nil {
		t.Fatalf("request ride: %v", err)
	}
	ride, err = f.svc.AssignDriver(ctx, riderAlice, ride.ID, driverDan.UserID)
	if err != nil {
		t.Fatalf("assign driver: %v", err)
	}
	return ride
}

func TestRideLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t, 3, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))

	ride := f.assignedRide(t, 4)
	if ride.Status != models.RideStatusAssigned || ride.AvailableSeats != 4 {
		t.Fatalf("after assign: status=%s seats=%d", ride.Status, ride.AvailableSeats)
	}

	ride, err := f.svc.BookSeats(ctx, riderBob, ride.ID, 2)
	if err != nil {
		t.Fatalf("book 2: %v", err)
	}
	if ride.Status != models.RideStatusAssigned || ride.AvailableSeats != 2 {
		t.Fatalf("after first booking: status=%s seats=%d", ride.Status, ride.AvailableSeats)
	}

	ride, err = f.svc.BookSeats(ctx, riderBob, ride.ID, 2)
	if err != nil {
		t.Fatalf("book 2 more: %v", err)
	}
	if ride.Status != models.RideStatusFull || ride.AvailableSeats != 0 {
		t.Fatalf("after second booking: status=%s seats=%d", ride.Status, ride.AvailableSeats)
	}

	if _, err := f.svc.BookSeats(ctx, riderBob, ride.ID, 1); !errors.Is(err, utils.ErrNoSeatsAvailable) {
		t.Fatalf("expected NoSeatsAvailable on full ride, got %v", err)
	}

	ride, err = f.svc.StartRide(ctx, driverDan, ride.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if ride.Status != models.RideStatusInProgress {
		t.Fatalf("expected in-progress, got %s", ride.Status)
	}

	ride, err = f.svc.CompleteRide(ctx, driverDan, ride.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ride.Status != models.RideStatusCompleted || !ride.IsDriver(driverDan.UserID) {
		t.Fatalf("expected completed with driver, got %s driver=%v", ride.Status, ride.DriverID)
	}

	ratings := NewRatingService(f.ratings, f.rides, f.drivers, logger.NewNop(), 0)
	if _, err := ratings.SubmitRating(ctx, riderBob, ride.ID, &models.SubmitRatingRequest{Overall: 5, Driving: 5, Behavior: 5, Punctuality: 5, Cleanliness: 5}); err != nil {
		t.Fatalf("submit rating: %v", err)
	}

	summary, err := ratings.GetDriverRatings(ctx, driverDan.UserID)
	if err != nil {
		t.Fatalf("driver ratings: %v", err)
	}
	if summary.Summary.Average != 5.0 || summary.Summary.Count != 1 {
		t.Fatalf("expected average 5 over 1 rating, got %+v", summary.Summary)
	}

	driver, _ := f.drivers.GetDriverByID(ctx, driverDan.UserID)
	if driver.Rating != 5.0 || driver.TotalRides != 1 {
		t.Fatalf("driver summary not refreshed: rating=%v total=%d", driver.Rating, driver.TotalRides)
	}

	want := "requested,assigned,booked,booked,started,completed"
	if got := joined(f.events.eventTypes()); got != want {
		t.Fatalf("events = %s, want %s", got, want)
	}
}

func TestBookingAllRemainingSeatsMakesRideFull(t *testing.T) {
	for seats := 1; seats <= 4; seats++ {
		t.Run(fmt.Sprintf("seats=%d", seats), func(t *testing.T) {
			f := newRideFixture(t, 3, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))
			ride := f.assignedRide(t, seats)
			if ride.AvailableSeats != seats {
				t.Fatalf("expected %d seats after assign, got %d", seats, ride.AvailableSeats)
			}

			ride, err := f.svc.BookSeats(context.Background(), riderBob, ride.ID, seats)
			if err != nil {
				t.Fatalf("book: %v", err)
			}
			if ride.AvailableSeats != 0 || ride.Status != models.RideStatusFull {
				t.Fatalf("expected full with 0 seats, got %s with %d", ride.Status, ride.AvailableSeats)
			}
		})
	}
}

func TestBookingZeroSeatsIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t, 3, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))
	ride := f.assignedRide(t, 3)

	if _, err := f.svc.BookSeats(ctx, riderBob, ride.ID, 0); !errors.Is(err, utils.ErrValidation) {
		t.Fatalf("expected Validation for zero seats, got %v", err)
	}
	stored, _ := f.svc.GetRide(ctx, ride.ID)
	if stored.AvailableSeats != 3 || stored.Version != ride.Version {
		t.Fatalf("ride changed after rejected booking: %+v", stored)
	}
}

func TestBookingMoreThanAvailableLeavesRideUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t, 3, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))
	ride := f.assignedRide(t, 3)

	_, err := f.svc.BookSeats(ctx, riderBob, ride.ID, 4)
	if !errors.Is(err, utils.ErrNoSeatsAvailable) {
		t.Fatalf("expected NoSeatsAvailable, got %v", err)
	}
	if utils.ContextOf(err)["ride_id"] != ride.ID {
		t.Fatalf("error context missing ride id: %v", utils.ContextOf(err))
	}

	stored, _ := f.rides.GetRideByID(ctx, ride.ID)
	if stored.AvailableSeats != 3 || stored.Version != ride.Version || len(stored.Bookings) != 0 {
		t.Fatalf("ride modified by failed booking: %+v", stored)
	}
}

func TestBookingRequiresAssignedRide(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t, 3)

	ride, err := f.svc.RequestRide(ctx, riderAlice, rideRequest(2))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := f.svc.BookSeats(ctx, riderBob, ride.ID, 1); !errors.Is(err, utils.ErrInvalidRideState) {
		t.Fatalf("expected InvalidRideState, got %v", err)
	}
	if _, err := f.svc.BookSeats(ctx, riderBob, ride.ID, 0); !errors.Is(err, utils.ErrValidation) {
		t.Fatalf("expected Validation for zero seats, got %v", err)
	}
}

func TestConcurrentBookingNeverOversells(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t, 20, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))
	ride := f.assignedRide(t, 4)

	const attempts = 10
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			rider := &models.Identity{UserID: fmt.Sprintf("rider-%d", i)}
			_, err := f.svc.BookSeats(ctx, rider, ride.ID, 1)
			errs <- err
		}(i)
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, utils.ErrNoSeatsAvailable) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 4 {
		t.Fatalf("expected exactly 4 bookings, got %d", success)
	}

	stored, _ := f.rides.GetRideByID(ctx, ride.ID)
	if stored.AvailableSeats != 0 || stored.Status != models.RideStatusFull || stored.BookedSeats() != 4 {
		t.Fatalf("unexpected final ride: status=%s seats=%d booked=%d", stored.Status, stored.AvailableSeats, stored.BookedSeats())
	}
}

func TestCancelCompletedRideFails(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t, 3, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))
	ride := f.assignedRide(t, 2)

	if _, err := f.svc.StartRide(ctx, driverDan, ride.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.svc.CompleteRide(ctx, driverDan, ride.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := f.svc.CancelRide(ctx, riderAlice, ride.ID, "changed my mind")
	if !errors.Is(err, utils.ErrInvalidRideState) {
		t.Fatalf("expected InvalidRideState, got %v", err)
	}
	if details := utils.ContextOf(err); details["from"] != string(models.RideStatusCompleted) || details["event"] != string(models.RideEventCancelled) {
		t.Fatalf("unexpected error context: %v", details)
	}

	stored, _ := f.rides.GetRideByID(ctx, ride.ID)
	if stored.Status != models.RideStatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
}

func TestCancelAllowedStatuses(t *testing.T) {
	ctx := context.Background()

	t.Run("assigned", func(t *testing.T) {
		f := newRideFixture(t, 3, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))
		ride := f.assignedRide(t, 2)
		cancelled, err := f.svc.CancelRide(ctx, driverDan, ride.ID, "car trouble")
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if cancelled.Status != models.RideStatusCancelled || cancelled.HasDriver() || cancelled.CancelledBy != driverDan.UserID {
			t.Fatalf("unexpected cancelled ride: %+v", cancelled)
		}
	})

	t.Run("requesting", func(t *testing.T) {
		f := newRideFixture(t, 3)
		ride, _ := f.svc.RequestRide(ctx, riderAlice, rideRequest(2))
		if _, err := f.svc.CancelRide(ctx, riderAlice, ride.ID, ""); !errors.Is(err, utils.ErrInvalidRideState) {
			t.Fatalf("expected InvalidRideState, got %v", err)
		}
	})

	t.Run("full", func(t *testing.T) {
		f := newRideFixture(t, 3, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))
		ride := f.assignedRide(t, 1)
		if _, err := f.svc.BookSeats(ctx, riderBob, ride.ID, 1); err != nil {
			t.Fatalf("book: %v", err)
		}
		if _, err := f.svc.CancelRide(ctx, riderAlice, ride.ID, ""); !errors.Is(err, utils.ErrInvalidRideState) {
			t.Fatalf("expected InvalidRideState, got %v", err)
		}
	})

	t.Run("stranger", func(t *testing.T) {
		f := newRideFixture(t, 3, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))
		ride := f.assignedRide(t, 2)
		if _, err := f.svc.CancelRide(ctx, riderBob, ride.ID, ""); !errors.Is(err, utils.ErrForbidden) {
			t.Fatalf("expected Forbidden, got %v", err)
		}
	})
}

func TestOnlyAssignedDriverCanStart(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t, 3, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))
	ride := f.assignedRide(t, 2)

	if _, err := f.svc.StartRide(ctx, riderAlice, ride.ID); !errors.Is(err, utils.ErrForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if _, err := f.svc.CompleteRide(ctx, driverDan, ride.ID); !errors.Is(err, utils.ErrInvalidRideState) {
		t.Fatalf("expected InvalidRideState completing an assigned ride, got %v", err)
	}
}

func TestAssignDriverGuards(t *testing.T) {
	ctx := context.Background()
	busy := driverAt("driver-busy", 40.7130, -74.0050, 0, 0)
	busy.IsAvailable = false
	noSeats := driverAt("driver-noseats", 40.7130, -74.0050, 0, 0)
	noSeats.CarSeats = 0

	f := newRideFixture(t, 3, busy, noSeats)
	ride, err := f.svc.RequestRide(ctx, riderAlice, rideRequest(2))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	tests := []struct {
		name     string
		driverID string
		want     error
	}{
		{name: "unavailable", driverID: busy.ID, want: utils.ErrInvalidRideState},
		{name: "no capacity", driverID: noSeats.ID, want: utils.ErrInvalidRideState},
		{name: "unknown", driverID: "driver-ghost", want: utils.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.AssignDriver(ctx, riderAlice, ride.ID, tt.driverID); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	stored, _ := f.rides.GetRideByID(ctx, ride.ID)
	if stored.Status != models.RideStatusRequesting || stored.HasDriver() {
		t.Fatalf("ride changed by failed assignment: %+v", stored)
	}
}

func TestAssignSetsSeatsFromCapacity(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{requested: 0, want: 4},
		{requested: 2, want: 2},
		{requested: 10, want: 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("requested=%d", tt.requested), func(t *testing.T) {
			f := newRideFixture(t, 3, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))
			ride := f.assignedRide(t, tt.requested)
			if ride.AvailableSeats != tt.want || ride.Capacity != 4 {
				t.Fatalf("seats=%d capacity=%d, want seats=%d capacity=4", ride.AvailableSeats, ride.Capacity, tt.want)
			}
		})
	}
}

// conflictingRideRepo loses every compare-and-set.
type conflictingRideRepo struct {
	*memoryRideRepo
	mu    sync.Mutex
	swaps int
}

func (r *conflictingRideRepo) CompareAndSwap(_ context.Context, ride *models.Ride, _ int64) error {
	r.mu.Lock()
	r.swaps++
	r.mu.Unlock()
	return utils.ErrConflict.With("ride_id", ride.ID)
}

func TestConflictSurfacesAfterRetries(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()
	repo := &conflictingRideRepo{memoryRideRepo: newMemoryRideRepo()}
	drivers := newMemoryDriverRepo(driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))
	geo := NewGeoService(nil, nil, log, GeoConfig{})
	svc := NewRideService(repo, drivers, geo, NewMatchingService(drivers, geo, log, MatchingConfig{}), &recordingNotifications{}, log, RideConfig{MaxRetries: 2})

	ride, err := svc.RequestRide(ctx, riderAlice, rideRequest(2))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	_, err = svc.AssignDriver(ctx, riderAlice, ride.ID, driverDan.UserID)
	if !errors.Is(err, utils.ErrConflict) || !utils.IsRetryable(err) {
		t.Fatalf("expected retryable Conflict, got %v", err)
	}
	if repo.swaps != 3 {
		t.Fatalf("expected 3 attempts, got %d", repo.swaps)
	}
	if utils.ContextOf(err)["attempts"] != "3" {
		t.Fatalf("expected attempts in context, got %v", utils.ContextOf(err))
	}
}

func TestAutoAssignPicksClosestDriver(t *testing.T) {
	ctx := context.Background()
	far := driverAt("driver-far", 40.7300, -74.0000, 5, 100)
	near := driverAt("driver-near", 40.7129, -74.0061, 3, 1)
	off := driverAt("driver-off", 40.7128, -74.0060, 5, 500)
	off.IsAvailable = false

	f := newRideFixture(t, 3, far, near, off)
	ride, err := f.svc.RequestRide(ctx, riderAlice, rideRequest(2))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	assigned, err := f.svc.AutoAssign(ctx, riderAlice, ride.ID)
	if err != nil {
		t.Fatalf("auto assign: %v", err)
	}
	if !assigned.IsDriver(near.ID) {
		t.Fatalf("expected %s, got %v", near.ID, *assigned.DriverID)
	}
}

func TestAutoAssignWithoutDrivers(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t, 3)
	ride, _ := f.svc.RequestRide(ctx, riderAlice, rideRequest(2))

	if _, err := f.svc.AutoAssign(ctx, riderAlice, ride.ID); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRecurringTemplateOccurrences(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t, 3, driverAt(driverDan.UserID, 40.7130, -74.0050, 0, 0))

	req := rideRequest(3)
	req.Recurring = true
	req.RideDays = []models.Weekday{models.Monday, models.Wednesday}
	scheduled := time.Date(2026, 10, 5, 8, 30, 0, 0, time.UTC)
	req.ScheduledAt = &scheduled

	template, err := f.svc.RequestRide(ctx, riderAlice, req)
	if err != nil {
		t.Fatalf("request template: %v", err)
	}
	if !template.IsTemplate() || !template.Active {
		t.Fatalf("expected active template, got %+v", template)
	}

	if _, err := f.svc.AssignDriver(ctx, riderAlice, template.ID, driverDan.UserID); !errors.Is(err, utils.ErrInvalidRideState) {
		t.Fatalf("expected InvalidRideState assigning a template, got %v", err)
	}

	from := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	occurrences, err := f.svc.MaterializeOccurrences(ctx, riderAlice, template.ID, from, to)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(occurrences) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(occurrences))
	}
	wantIDs := []string{template.ID + "-20261012", template.ID + "-20261014"}
	for i, o := range occurrences {
		if o.ID != wantIDs[i] {
			t.Fatalf("occurrence %d id = %s, want %s", i, o.ID, wantIDs[i])
		}
		if o.ScheduledAt.Hour() != 8 || o.ScheduledAt.Minute() != 30 {
			t.Fatalf("occurrence time = %v", o.ScheduledAt)
		}
		if o.IsTemplate() || o.Status != models.RideStatusRequesting {
			t.Fatalf("occurrence should be a plain requesting ride: %+v", o)
		}
	}

	again, err := f.svc.MaterializeOccurrences(ctx, riderAlice, template.ID, from, to)
	if err != nil {
		t.Fatalf("materialize again: %v", err)
	}
	stored, err := f.svc.ListOccurrences(ctx, template.ID)
	if err != nil {
		t.Fatalf("list occurrences: %v", err)
	}
	if len(again) != 2 || len(stored) != 2 {
		t.Fatalf("materialize is not idempotent: returned %d, stored %d", len(again), len(stored))
	}
	if _, err := f.svc.ListOccurrences(ctx, occurrences[0].ID); !errors.Is(err, utils.ErrInvalidRideState) {
		t.Fatalf("expected InvalidRideState listing occurrences of a plain ride, got %v", err)
	}

	if _, err := f.svc.AssignDriver(ctx, riderAlice, occurrences[0].ID, driverDan.UserID); err != nil {
		t.Fatalf("assign occurrence: %v", err)
	}

	deactivated, err := f.svc.DeactivateTemplate(ctx, riderAlice, template.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deactivated.Active {
		t.Fatal("template still active")
	}
	if _, err := f.svc.MaterializeOccurrences(ctx, riderAlice, template.ID, from, to); !errors.Is(err, utils.ErrInvalidRideState) {
		t.Fatalf("expected InvalidRideState for inactive template, got %v", err)
	}
	if _, err := f.svc.CancelRide(ctx, riderAlice, template.ID, ""); !errors.Is(err, utils.ErrInvalidRideState) {
		t.Fatalf("expected InvalidRideState cancelling a template, got %v", err)
	}
}

func TestRequestRideValidation(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture(t, 3)

	recurringWithoutDays := rideRequest(1)
	recurringWithoutDays.Recurring = true

	badOrigin := rideRequest(1)
	badOrigin.Origin.Latitude = 91

	for name, req := range map[string]*models.CreateRideRequest{
		"recurring without days": recurringWithoutDays,
		"bad origin":             badOrigin,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.RequestRide(ctx, riderAlice, req)
			if err == nil {
				t.Fatal("expected error")
			}
			if kind := utils.KindOf(err); kind != utils.KindValidation && kind != utils.KindInvalidCoordinate {
				t.Fatalf("unexpected kind %s: %v", kind, err)
			}
		})
	}
}
