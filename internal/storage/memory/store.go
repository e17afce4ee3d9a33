package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

// Store keeps all entities in process memory. Mutations take the write
// lock so concurrent creates cannot slip past the plate/deviceId
// uniqueness checks; reads take the read lock.
type Store struct {
	mu sync.RWMutex

	vehicles map[uuid.UUID]model.Vehicle
	points   map[uuid.UUID]model.GpsPoint
	history  []model.UploadHistory
	users    map[uuid.UUID]model.User

	plateIndex   map[string]uuid.UUID
	deviceIndex  map[string]uuid.UUID
	usernameIdx  map[string]uuid.UUID
	vehiclePoint map[uuid.UUID]map[uuid.UUID]struct{}
}

func New() *Store {
	return &Store{
		vehicles:     make(map[uuid.UUID]model.Vehicle),
		points:       make(map[uuid.UUID]model.GpsPoint),
		users:        make(map[uuid.UUID]model.User),
		plateIndex:   make(map[string]uuid.UUID),
		deviceIndex:  make(map[string]uuid.UUID),
		usernameIdx:  make(map[string]uuid.UUID),
		vehiclePoint: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

var _ storage.Storage = (*Store)(nil)

func (s *Store) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicles := make([]model.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		vehicles = append(vehicles, v)
	}
	sort.Slice(vehicles, func(i, j int) bool {
		return vehicles[i].UpdatedAt.After(vehicles[j].UpdatedAt)
	})
	return vehicles, nil
}

func (s *Store) GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vehicles[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *Store) GetVehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.plateIndex[plate]
	if !ok {
		return nil, nil
	}
	v := s.vehicles[id]
	return &v, nil
}

func (s *Store) GetVehicleByDeviceID(ctx context.Context, deviceID string) (*model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.deviceIndex[deviceID]
	if !ok {
		return nil, nil
	}
	v := s.vehicles[id]
	return &v, nil
}

func (s *Store) CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plateIndex[vehicle.Plate]; exists {
		return storage.ErrDuplicatePlate
	}
	if _, exists := s.deviceIndex[vehicle.DeviceID]; exists {
		return storage.ErrDuplicateDeviceID
	}

	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	if vehicle.Status == "" {
		vehicle.Status = model.VehicleStatusActive
	}
	now := time.Now()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	s.vehicles[vehicle.ID] = *vehicle
	s.plateIndex[vehicle.Plate] = vehicle.ID
	s.deviceIndex[vehicle.DeviceID] = vehicle.ID
	return nil
}

func (s *Store) UpdateVehicle(ctx context.Context, id uuid.UUID, update storage.VehicleUpdate) (*model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vehicle, ok := s.vehicles[id]
	if !ok {
		return nil, nil
	}

	if update.Plate != nil && *update.Plate != vehicle.Plate {
		if other, exists := s.plateIndex[*update.Plate]; exists && other != id {
			return nil, storage.ErrDuplicatePlate
		}
	}
	if update.DeviceID != nil && *update.DeviceID != vehicle.DeviceID {
		if other, exists := s.deviceIndex[*update.DeviceID]; exists && other != id {
			return nil, storage.ErrDuplicateDeviceID
		}
	}

	if update.Plate != nil {
		delete(s.plateIndex, vehicle.Plate)
		vehicle.Plate = *update.Plate
		s.plateIndex[vehicle.Plate] = id
	}
	if update.DeviceID != nil {
		delete(s.deviceIndex, vehicle.DeviceID)
		vehicle.DeviceID = *update.DeviceID
		s.deviceIndex[vehicle.DeviceID] = id
	}
	if update.Model != nil {
		vehicle.Model = *update.Model
	}
	if update.Status != nil {
		vehicle.Status = *update.Status
	}
	if update.Manufacturer != nil {
		vehicle.Manufacturer = update.Manufacturer
	}
	if update.Notes != nil {
		vehicle.Notes = update.Notes
	}
	vehicle.UpdatedAt = time.Now()

	s.vehicles[id] = vehicle
	return &vehicle, nil
}

func (s *Store) DeleteVehicle(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vehicle, ok := s.vehicles[id]
	if !ok {
		return false, nil
	}

	delete(s.vehicles, id)
	delete(s.plateIndex, vehicle.Plate)
	delete(s.deviceIndex, vehicle.DeviceID)

	// Cascade: drop every point referencing the vehicle via the
	// secondary index rather than scanning all points.
	for pointID := range s.vehiclePoint[id] {
		delete(s.points, pointID)
	}
	delete(s.vehiclePoint, id)
	return true, nil
}

func (s *Store) QueryGpsPoints(ctx context.Context, query storage.GpsQuery) ([]model.GpsPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []model.GpsPoint
	for _, p := range s.points {
		if query.VehicleID != nil && (p.VehicleID == nil || *p.VehicleID != *query.VehicleID) {
			continue
		}
		if query.DeviceID != nil && p.DeviceID != *query.DeviceID {
			continue
		}
		if query.StartDate != nil && p.Timestamp.Before(*query.StartDate) {
			continue
		}
		if query.EndDate != nil && p.Timestamp.After(*query.EndDate) {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	limit := query.Limit
	if limit == 0 {
		limit = storage.DefaultQueryLimit
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) LatestGpsPoint(ctx context.Context, vehicleID uuid.UUID) (*model.GpsPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *model.GpsPoint
	for pointID := range s.vehiclePoint[vehicleID] {
		p := s.points[pointID]
		if latest == nil || p.Timestamp.After(latest.Timestamp) {
			point := p
			latest = &point
		}
	}
	return latest, nil
}

func (s *Store) CreateGpsPoint(ctx context.Context, point *model.GpsPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertPointLocked(point)
	return nil
}

func (s *Store) BulkCreateGpsPoints(ctx context.Context, points []model.GpsPoint) ([]model.GpsPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := make([]model.GpsPoint, 0, len(points))
	for i := range points {
		s.insertPointLocked(&points[i])
		inserted = append(inserted, points[i])
	}
	return inserted, nil
}

func (s *Store) insertPointLocked(point *model.GpsPoint) {
	if point.ID == uuid.Nil {
		point.ID = uuid.New()
	}
	point.CreatedAt = time.Now()
	s.points[point.ID] = *point

	if point.VehicleID != nil {
		idx, ok := s.vehiclePoint[*point.VehicleID]
		if !ok {
			idx = make(map[uuid.UUID]struct{})
			s.vehiclePoint[*point.VehicleID] = idx
		}
		idx[point.ID] = struct{}{}
	}
}

func (s *Store) ListUploadHistory(ctx context.Context) ([]model.UploadHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]model.UploadHistory, len(s.history))
	copy(history, s.history)
	sort.Slice(history, func(i, j int) bool {
		return history[i].UploadedAt.After(history[j].UploadedAt)
	})
	return history, nil
}

func (s *Store) CreateUploadHistory(ctx context.Context, entry *model.UploadHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.UploadedAt = time.Now()
	s.history = append(s.history, *entry)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernameIdx[username]
	if !ok {
		return nil, nil
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usernameIdx[user.Username]; exists {
		return storage.ErrDuplicateUsername
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = "user"
	}
	user.CreatedAt = time.Now()

	s.users[user.ID] = *user
	s.usernameIdx[user.Username] = user.ID
	return nil
}

func (s *Store) VehicleCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vehicles), nil
}

func (s *Store) ActiveVehicleCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, v := range s.vehicles {
		if v.Status == model.VehicleStatusActive {
			count++
		}
	}
	return count, nil
}

func (s *Store) RoutesTrackedToday(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	seen := make(map[uuid.UUID]struct{})
	for _, p := range s.points {
		if p.VehicleID == nil {
			continue
		}
		if p.Timestamp.Before(dayStart) || !p.Timestamp.Before(dayEnd) {
			continue
		}
		seen[*p.VehicleID] = struct{}{}
	}
	return len(seen), nil
}
