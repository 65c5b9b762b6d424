package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mafiacoder/backend/internal/domain"
)

// userRepository implements domain.UserRepository using GORM
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *domain.User) error {
	result := r.db.Create(user)
	if result.Error != nil {
		// Check for unique constraint violation
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrUserAlreadyExists
		}
		return result.Error
	}
	return nil
}

// FindByID finds a user by their ID
func (r *userRepository) FindByID(id uuid.UUID) (*domain.User, error) {
	var user domain.User
	result := r.db.Where("id = ?", id).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// FindByEmail finds a user by their email address
func (r *userRepository) FindByEmail(email string) (*domain.User, error) {
	var user domain.User
	result := r.db.Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// MarkSolved adds the problem to the user's solved set and bumps xp/streak.
// The insert ignores conflicts on the composite key, so re-solving a problem
// is a no-op for the set, and the counter updates are single atomic
// statements safe under concurrent Accepted verdicts.
func (r *userRepository) MarkSolved(userID, problemID uuid.UUID, xpGain, streakGain int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO user_solved_problems (user_id, problem_id) VALUES (?, ?)
			 ON CONFLICT DO NOTHING`,
			userID, problemID,
		).Error; err != nil {
			return err
		}

		return tx.Model(&domain.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"xp":     gorm.Expr("xp + ?", xpGain),
				"streak": gorm.Expr("streak + ?", streakGain),
			}).Error
	})
}

// CountSolved returns the size of the user's solved set
func (r *userRepository) CountSolved(userID uuid.UUID) (int64, error) {
	var count int64
	result := r.db.Table("user_solved_problems").
		Where("user_id = ?", userID).
		Count(&count)
	return count, result.Error
}

// TopByXP returns the highest-ranked users for the global leaderboard
func (r *userRepository) TopByXP(limit int) ([]domain.User, error) {
	var users []domain.User
	result := r.db.
		Order("xp DESC, streak DESC").
		Limit(limit).
		Find(&users)
	return users, result.Error
}
