package dbhelper

import (
	"errors"

	"github.com/sessionapp/apiv1/models"
	"github.com/sessionapp/apiv1/utils"
	"gorm.io/gorm"
)

// UserStore holds identities and answers credential checks. It is injected
// into the handlers rather than reached through a package global.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new identity. The caller supplies an already-hashed
// password. Returns ErrDuplicateEmail when the email is taken.
func (s *UserStore) Create(user *models.User) error {
	user.Email = utils.NormalizeEmail(user.Email)

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrDuplicateEmail
	}
	user.Active = true
	if err := s.db.Create(user).Error; err != nil {
		return err
	}
	return nil
}

// GetByEmail looks up an active identity by normalized email. Deactivated
// identities resolve to ErrUserNotFound everywhere.
func (s *UserStore) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ? AND active = ?", utils.NormalizeEmail(email), true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// VerifyCredentials returns the identity when the password matches its
// stored hash. A bcrypt comparison runs on every call, against a dummy hash
// when the email is unknown, so both failure paths take comparable time and
// collapse into the same ErrInvalidCredentials.
func (s *UserStore) VerifyCredentials(email, password string) (*models.User, error) {
	user, err := s.GetByEmail(email)
	if err != nil {
		if errors.Is(err, utils.ErrUserNotFound) {
			utils.CompareDummyPassword(password)
			return nil, utils.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := utils.ComparePasswords(user.PasswordHash, password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserStore) UpdateDescription(email, description string) error {
	user, err := s.GetByEmail(email)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("description", description).Error
}

// Deactivate clears the active flag. The row stays in place; the identity
// can no longer log in and resolves to ErrUserNotFound post-auth.
func (s *UserStore) Deactivate(email string) error {
	user, err := s.GetByEmail(email)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("active", false).Error
}

// List returns a page of active identities, for the admin-only listing.
func (s *UserStore) List(page, perPage int) ([]models.User, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	var users []models.User
	err := s.db.
		Where("active = ?", true).
		Order("id").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error
	return users, err
}
