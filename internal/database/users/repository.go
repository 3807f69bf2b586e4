// Package users provides database operations for user accounts.
package users

import (
	"errors"

	"gorm.io/gorm"

	"github.com/booklogapp/booklog/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. Returns gorm.ErrDuplicatedKey when the
// username or email is already taken.
func (r *Repository) Create(user *entities.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by primary key.
// Returns (nil, nil) when no record exists.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves a user by email.
// Returns (nil, nil) when no record exists.
func (r *Repository) FindByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername retrieves a user by username.
// Returns (nil, nil) when no record exists.
func (r *Repository) FindByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Save persists all fields of an existing user.
func (r *Repository) Save(user *entities.User) error {
	return r.db.Save(user).Error
}
