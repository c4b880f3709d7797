package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chemxplore/internal/model"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
var ErrDuplicateEmail = errors.New("email already registered")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	return r.first("query user by email failed", "email = ?", email)
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	return r.first("query user by id failed", "id = ?", id)
}

func (r *UserRepository) GetByVerifyToken(token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.first("query user by verify token failed", "verify_token = ?", token)
}

func (r *UserRepository) MarkConfirmed(id uint, at time.Time) error {
	err := r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"email_confirmed_at": at,
		"verify_token":       "",
	}).Error
	if err != nil {
		return fmt.Errorf("confirm user email failed: %w", err)
	}
	return nil
}

func (r *UserRepository) first(failure, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", failure, err)
	}
	return &user, nil
}
