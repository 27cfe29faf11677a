package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rideshare/internal/models"
	"rideshare/internal/utils"
	"rideshare/internal/validators"
	"rideshare/pkg/maps"
)

// memoryRideRepo stores clones so callers never share state with the store.
type memoryRideRepo struct {
	mu    sync.Mutex
	rides map[string]*models.Ride
}

func newMemoryRideRepo() *memoryRideRepo {
	return &memoryRideRepo{rides: make(map[string]*models.Ride)}
}

func (r *memoryRideRepo) CreateRide(_ context.Context, ride *models.Ride) error {
	if err := validators.ValidateRide(ride); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rides[ride.ID]; ok {
		return utils.ErrDuplicate.With("ride_id", ride.ID)
	}
	r.rides[ride.ID] = ride.Clone()
	return nil
}

func (r *memoryRideRepo) GetRideByID(_ context.Context, id string) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok {
		return nil, utils.ErrNotFound.With("ride_id", id)
	}
	return ride.Clone(), nil
}

func (r *memoryRideRepo) CompareAndSwap(_ context.Context, ride *models.Ride, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rides[ride.ID]
	if !ok {
		return utils.ErrNotFound.With("ride_id", ride.ID)
	}
	if stored.Version != expectedVersion {
		return utils.ErrConflict.With("ride_id", ride.ID)
	}
	ride.Version = expectedVersion + 1
	if err := validators.ValidateRide(ride); err != nil {
		ride.Version = expectedVersion
		return err
	}
	r.rides[ride.ID] = ride.Clone()
	return nil
}

func (r *memoryRideRepo) CreateOccurrence(_ context.Context, ride *models.Ride) (bool, error) {
	if err := validators.ValidateRide(ride); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rides[ride.ID]; ok {
		return false, nil
	}
	r.rides[ride.ID] = ride.Clone()
	return true, nil
}

func (r *memoryRideRepo) GetOccurrences(_ context.Context, templateID string) ([]*models.Ride, error) {
	return r.filter(func(ride *models.Ride) bool {
		return ride.TemplateID != nil && *ride.TemplateID == templateID
	}), nil
}

func (r *memoryRideRepo) GetRidesByDriver(_ context.Context, driverID string, statuses []models.RideStatus) ([]*models.Ride, error) {
	return r.filter(func(ride *models.Ride) bool {
		if !ride.IsDriver(driverID) {
			return false
		}
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if ride.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *memoryRideRepo) GetRidesByRider(_ context.Context, riderID string, skip, limit int) ([]*models.Ride, error) {
	rides := r.filter(func(ride *models.Ride) bool { return ride.IsPassenger(riderID) })
	if skip >= len(rides) {
		return []*models.Ride{}, nil
	}
	rides = rides[skip:]
	if limit > 0 && len(rides) > limit {
		rides = rides[:limit]
	}
	return rides, nil
}

func (r *memoryRideRepo) filter(keep func(*models.Ride) bool) []*models.Ride {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Ride, 0)
	for _, ride := range r.rides {
		if keep(ride) {
			out = append(out, ride.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memoryDriverRepo struct {
	mu      sync.Mutex
	drivers map[string]*models.Driver
}

func newMemoryDriverRepo(drivers ...*models.Driver) *memoryDriverRepo {
	r := &memoryDriverRepo{drivers: make(map[string]*models.Driver)}
	for _, d := range drivers {
		r.drivers[d.ID] = d
	}
	return r
}

func (r *memoryDriverRepo) CreateDriver(_ context.Context, driver *models.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drivers[driver.ID]; ok {
		return utils.ErrDuplicate.With("driver_id", driver.ID)
	}
	d := *driver
	r.drivers[driver.ID] = &d
	return nil
}

func (r *memoryDriverRepo) GetDriverByID(_ context.Context, id string) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return nil, utils.ErrNotFound.With("driver_id", id)
	}
	c := *d
	return &c, nil
}

func (r *memoryDriverRepo) GetDriverByUserID(_ context.Context, userID string) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drivers {
		if d.UserID == userID {
			c := *d
			return &c, nil
		}
	}
	return nil, utils.ErrNotFound.With("user_id", userID)
}

func (r *memoryDriverRepo) UpdateProfile(_ context.Context, driver *models.Driver) error {
	return r.update(driver.ID, func(d *models.Driver) {
		d.DisplayName = driver.DisplayName
		d.CarType = driver.CarType
		d.CarSeats = driver.CarSeats
		d.CarImageURL = driver.CarImageURL
		d.DeviceToken = driver.DeviceToken
	})
}

func (r *memoryDriverRepo) UpdateLocation(_ context.Context, id string, location models.Location, at time.Time) error {
	return r.update(id, func(d *models.Driver) {
		d.CurrentLocation = &location
		d.LastLocationUpdate = &at
	})
}

func (r *memoryDriverRepo) UpdateAvailability(_ context.Context, id string, available bool) error {
	return r.update(id, func(d *models.Driver) { d.IsAvailable = available })
}

func (r *memoryDriverRepo) GetAvailableDriversNear(_ context.Context, center models.Coordinate, radiusKM float64, limit int) ([]*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Driver, 0)
	for _, d := range r.drivers {
		pos, ok := d.Coordinate()
		if !ok || !d.IsAvailable {
			continue
		}
		if utils.IsWithinRadius(center.Latitude, center.Longitude, pos.Latitude, pos.Longitude, radiusKM) {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryDriverRepo) UpdateRatingSummary(_ context.Context, id string, rating float64, totalRides int) error {
	return r.update(id, func(d *models.Driver) {
		d.Rating = rating
		d.TotalRides = totalRides
	})
}

func (r *memoryDriverRepo) update(id string, fn func(*models.Driver)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return utils.ErrNotFound.With("driver_id", id)
	}
	fn(d)
	return nil
}

type memoryRatingRepo struct {
	mu      sync.Mutex
	ratings []*models.Rating
}

func (r *memoryRatingRepo) CreateRating(_ context.Context, rating *models.Rating) error {
	if err := validators.Validate(rating); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.ratings {
		if existing.RideID == rating.RideID && existing.RiderID == rating.RiderID {
			return utils.ErrDuplicate.With("ride_id", rating.RideID)
		}
	}
	c := *rating
	r.ratings = append(r.ratings, &c)
	return nil
}

func (r *memoryRatingRepo) GetRatingsByDriver(_ context.Context, driverID string) ([]*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Rating, 0)
	for i := len(r.ratings) - 1; i >= 0; i-- {
		if r.ratings[i].DriverID == driverID {
			c := *r.ratings[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memoryRatingRepo) GetRatingByRideAndRider(_ context.Context, rideID, riderID string) (*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rating := range r.ratings {
		if rating.RideID == rideID && rating.RiderID == riderID {
			c := *rating
			return &c, nil
		}
	}
	return nil, utils.ErrNotFound
}

type memoryChatRepo struct {
	mu       sync.Mutex
	chats    map[string]*models.Chat
	messages []*models.Message
}

func newMemoryChatRepo() *memoryChatRepo {
	return &memoryChatRepo{chats: make(map[string]*models.Chat)}
}

func (r *memoryChatRepo) FindOrCreateChat(_ context.Context, chat *models.Chat) (*models.Chat, bool, error) {
	if err := validators.Validate(chat); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.chats {
		if existing.PairKey == chat.PairKey {
			return cloneChat(existing), false, nil
		}
	}
	r.chats[chat.ID] = cloneChat(chat)
	return cloneChat(chat), true, nil
}

func (r *memoryChatRepo) GetChatByID(_ context.Context, id string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, utils.ErrNotFound.With("chat_id", id)
	}
	return cloneChat(chat), nil
}

func (r *memoryChatRepo) GetChatsByParticipant(_ context.Context, userID string, skip, limit int) ([]*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Chat, 0)
	for _, chat := range r.chats {
		if chat.HasParticipant(userID) {
			out = append(out, cloneChat(chat))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return page(out, skip, limit), nil
}

func (r *memoryChatRepo) AddMessage(_ context.Context, message *models.Message, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[message.ChatID]
	if !ok {
		return utils.ErrNotFound.With("chat_id", message.ChatID)
	}
	c := *message
	r.messages = append(r.messages, &c)
	sentAt := message.CreatedAt
	chat.LastMessage = models.LastMessage{Text: message.Text, SenderID: message.SenderID, SentAt: &sentAt}
	chat.UnreadCount[recipientID]++
	chat.UpdatedAt = message.CreatedAt
	return nil
}

func (r *memoryChatRepo) GetMessages(_ context.Context, chatID string, skip, limit int) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Message, 0)
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ChatID == chatID {
			c := *r.messages[i]
			out = append(out, &c)
		}
	}
	return page(out, skip, limit), nil
}

func (r *memoryChatRepo) ResetUnread(_ context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return utils.ErrNotFound.With("chat_id", chatID)
	}
	chat.UnreadCount[userID] = 0
	return nil
}

func cloneChat(c *models.Chat) *models.Chat {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		out.UnreadCount[k] = v
	}
	return &out
}

func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string]interface{}
	gets   int
	hits   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]interface{})}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.values[key]
	if !ok {
		return ErrCacheMiss
	}
	c.hits++
	switch d := dest.(type) {
	case *models.RouteEstimate:
		*d = v.(models.RouteEstimate)
	default:
		return ErrCacheMiss
	}
	return nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := value.(*models.RouteEstimate); ok {
		value = *e
	}
	c.values[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

// stubProvider answers with a fixed route or error and counts calls.
type stubProvider struct {
	mu       sync.Mutex
	calls    int
	distance float64
	duration float64
	err      error
	delay    time.Duration
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) GetDirections(ctx context.Context, _ *maps.DirectionsRequest) (*maps.DirectionsResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &maps.DirectionsResponse{Routes: []maps.Route{{
		Distance: maps.Distance{Value: p.distance},
		Duration: maps.Duration{Value: p.duration},
	}}}, nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fixedETA returns a preset ETA per starting point, keyed by latitude.
type fixedETA struct {
	etas map[float64]float64
}

func (g fixedETA) DistanceAndETA(_ context.Context, from, _ models.Coordinate) (*models.RouteEstimate, error) {
	eta, ok := g.etas[from.Latitude]
	if !ok {
		return nil, utils.ErrProviderUnavailable
	}
	return &models.RouteEstimate{DistanceMeters: eta * 10, ETASeconds: eta, Source: models.EstimateSourceProvider}, nil
}

type recordingNotifications struct {
	mu       sync.Mutex
	events   []*models.RideEvent
	notified []string
}

func (n *recordingNotifications) PublishRideEvent(_ context.Context, event *models.RideEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifications) NotifyDriver(_ context.Context, driverID, _, _ string, _ map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, driverID)
}

func (n *recordingNotifications) eventTypes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]string, len(n.events))
	for i, e := range n.events {
		types[i] = string(e.Type)
	}
	return types
}

func joined(types []string) string {
	return strings.Join(types, ",")
}

func driverAt(id string, lat, lng float64, rating float64, totalRides int) *models.Driver {
	loc := models.NewLocation(models.Coordinate{Latitude: lat, Longitude: lng}, "")
	return &models.Driver{
		ID:              id,
		UserID:          id,
		CurrentLocation: &loc,
		CarSeats:        4,
		Rating:          rating,
		TotalRides:      totalRides,
		IsAvailable:     true,
	}
}
