package database

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Generic store interface
type Store[T any] interface {
	Name() string
	AutoMigrate() error
	Insert(record *T) error
	InsertBatch(records []T) (int, error)
	All(order string) ([]T, error)
	ByID(id uint) (*T, error)
	FirstWhere(query string, args ...interface{}) (*T, error)
	Save(record *T) error
	Delete(id uint) error
	Count() (int64, error)
}

// Generic repository implementation, one per model (table)
type DataStore[T any] struct {
	name string
	db   *gorm.DB
}

var _ Store[struct{}] = (*DataStore[struct{}])(nil)

// NewDataStore wraps db for model T and migrates its table.
func NewDataStore[T any](db *gorm.DB, name string) (*DataStore[T], error) {
	store := &DataStore[T]{db: db, name: name}
	if err := store.AutoMigrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *DataStore[T]) Name() string {
	return s.name
}

// AutoMigrate migrates the model to the database
func (s *DataStore[T]) AutoMigrate() error {
	var instance T
	return s.db.AutoMigrate(&instance)
}

// Insert creates record, filling in its primary key
func (s *DataStore[T]) Insert(record *T) error {
	return s.db.Create(record).Error
}

// InsertBatch creates records in batches and returns the number of rows written
func (s *DataStore[T]) InsertBatch(records []T) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	result := s.db.CreateInBatches(&records, batchSize)
	return int(result.RowsAffected), result.Error
}

// All returns every row, ordered by order when given (e.g. "id desc")
func (s *DataStore[T]) All(order string) ([]T, error) {
	var rows []T
	q := s.db
	if order != "" {
		q = q.Order(order)
	}
	result := q.Find(&rows)
	return rows, result.Error
}

// ByID returns the row with the given primary key
func (s *DataStore[T]) ByID(id uint) (*T, error) {
	var row T
	if err := s.db.First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// FirstWhere returns the first row matching the condition
func (s *DataStore[T]) FirstWhere(query string, args ...interface{}) (*T, error) {
	var row T
	if err := s.db.Where(query, args...).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// Save updates record, or creates it when it has no primary key
func (s *DataStore[T]) Save(record *T) error {
	return s.db.Save(record).Error
}

// Delete deletes the row with the given ID
func (s *DataStore[T]) Delete(id uint) error {
	var instance T
	return s.db.Delete(&instance, id).Error
}

// Count returns the number of rows
func (s *DataStore[T]) Count() (int64, error) {
	var (
		instance T
		count    int64
	)
	result := s.db.Model(&instance).Count(&count)
	return count, result.Error
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
