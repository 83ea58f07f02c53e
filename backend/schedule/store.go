package schedule

import (
	"errors"
	"sync"

	"aptiportal/backend/models"

	"gorm.io/gorm"
)

const configKey = "main"

// Store holds the single mutable schedule config: one row in Postgres,
// cached in memory. Get never touches the database, so the engine can
// read the config on every request for free. The cache is replaced as
// a whole under the mutex; readers never see a half-applied update.
type Store struct {
	db *gorm.DB

	mu      sync.RWMutex
	current Config
}

// NewStore seeds the cache from the given defaults (normally built
// from environment variables). Call Load at startup to pick up the
// persisted row, if there is one.
func NewStore(db *gorm.DB, defaults Config) *Store {
	return &Store{
		db:      db,
		current: Sanitize(defaults, baseConfig),
	}
}

// Get returns a copy of the cached config. It never fails.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load reads the persisted singleton row and merges it into the cache.
// A missing row leaves the defaults in place.
func (s *Store) Load() (Config, error) {
	var row models.ScheduleConfig
	err := s.db.Where("key = ?", configKey).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.Get(), nil
		}
		return s.Get(), err
	}

	s.mu.Lock()
	s.current = Sanitize(rowToConfig(row), s.current)
	s.mu.Unlock()
	return s.Get(), nil
}

// Save validates and normalizes a candidate, persists it, and swaps
// the cache. Nothing is applied on a validation or storage error.
func (s *Store) Save(candidate Config) (Config, error) {
	if err := Validate(candidate); err != nil {
		return s.Get(), err
	}
	next := Sanitize(candidate, s.Get())

	var row models.ScheduleConfig
	err := s.db.Where("key = ?", configKey).First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return s.Get(), err
	}
	row.Key = configKey
	row.Week1StartDate = next.Week1StartDate
	row.TestDayOfWeek = next.TestDayOfWeek
	row.WindowStartHour = next.WindowStartHour
	row.WindowStartMinute = next.WindowStartMinute
	row.WindowEndHour = next.WindowEndHour
	row.WindowEndMinute = next.WindowEndMinute
	if err := s.db.Save(&row).Error; err != nil {
		return s.Get(), err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return next, nil
}

func rowToConfig(row models.ScheduleConfig) Config {
	return Config{
		Week1StartDate:    row.Week1StartDate,
		TestDayOfWeek:     row.TestDayOfWeek,
		WindowStartHour:   row.WindowStartHour,
		WindowStartMinute: row.WindowStartMinute,
		WindowEndHour:     row.WindowEndHour,
		WindowEndMinute:   row.WindowEndMinute,
	}
}
