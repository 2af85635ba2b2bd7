package store

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"yatube/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("The username is already taken")
	ErrEmptyUsername   = errors.New("You have to enter a username")
	ErrEmptyPassword   = errors.New("You have to enter a password")
	ErrInvalidEmail    = errors.New("You have to enter a valid email address")
	ErrInvalidUsername = errors.New("Invalid username")
	ErrInvalidPassword = errors.New("Invalid password")
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

type UserService struct {
	db *gorm.DB
}

func (s *UserService) ByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) ByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create registers a user after checking the signup constraints.
func (s *UserService) Create(username, email, password string, staff bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return nil, ErrEmptyUsername
	case email != "" && !strings.Contains(email, "@"):
		return nil, ErrInvalidEmail
	case password == "":
		return nil, ErrEmptyPassword
	}

	if _, err := s.ByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Username: username, Email: email, PWHash: hash, IsStaff: staff}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	user, err := s.ByUsername(username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidUsername
	}
	if err != nil {
		return nil, err
	}
	if !CheckPasswordHash(password, user.PWHash) {
		return nil, ErrInvalidPassword
	}
	return user, nil
}

// EnsureStaff creates the staff account, or promotes an existing user with
// that name.
func (s *UserService) EnsureStaff(username, password string) (*models.User, error) {
	user, err := s.ByUsername(username)
	if errors.Is(err, ErrUserNotFound) {
		return s.Create(username, "", password, true)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsStaff {
		if err := s.db.Model(user).Update("is_staff", true).Error; err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *UserService) Delete(id uint) error {
	return s.db.Delete(&models.User{}, id).Error
}
