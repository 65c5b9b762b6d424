package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mafiacoder/backend/internal/domain"
)

// contestRepository implements domain.ContestRepository using GORM
type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository creates a new contest repository
func NewContestRepository(db *gorm.DB) domain.ContestRepository {
	return &contestRepository{db: db}
}

// Create creates a new contest, linking any referenced problems
func (r *contestRepository) Create(contest *domain.Contest) error {
	return r.db.Create(contest).Error
}

// FindByID finds a contest by its ID (without problems)
func (r *contestRepository) FindByID(id uuid.UUID) (*domain.Contest, error) {
	var contest domain.Contest
	result := r.db.Where("id = ?", id).First(&contest)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrContestNotFound
		}
		return nil, result.Error
	}
	return &contest, nil
}

// FindByIDWithProblems finds a contest with its problem list and
// participant roster loaded
func (r *contestRepository) FindByIDWithProblems(id uuid.UUID) (*domain.Contest, error) {
	var contest domain.Contest
	result := r.db.
		Preload("Problems").
		Preload("Participants").
		Where("id = ?", id).
		First(&contest)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrContestNotFound
		}
		return nil, result.Error
	}
	return &contest, nil
}

// FindAll returns all contests ordered by start time, newest first
func (r *contestRepository) FindAll() ([]domain.Contest, error) {
	var contests []domain.Contest
	result := r.db.
		Preload("Participants").
		Order("start_time DESC").
		Find(&contests)
	return contests, result.Error
}

// AddParticipant inserts the participant in a single conditional statement:
// the row lands only if the contest exists, registration is still open, and
// the user is not already present. Running the deadline check and the
// duplicate check inside the INSERT closes the read-modify-write race
// between concurrent registrations.
func (r *contestRepository) AddParticipant(contestID, userID uuid.UUID) (bool, error) {
	result := r.db.Exec(
		`INSERT INTO contest_participants (contest_id, user_id, score)
		 SELECT c.id, ?, 0
		 FROM contests c
		 WHERE c.id = ?
		   AND COALESCE(c.registration_deadline, c.start_time) > ?
		 ON CONFLICT (contest_id, user_id) DO NOTHING`,
		userID, contestID, time.Now(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindParticipant returns the participant row for the user, or
// ErrNotRegistered
func (r *contestRepository) FindParticipant(contestID, userID uuid.UUID) (*domain.ContestParticipant, error) {
	var participant domain.ContestParticipant
	result := r.db.
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		First(&participant)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotRegistered
		}
		return nil, result.Error
	}
	return &participant, nil
}

// FindParticipants returns the full roster with user data loaded
func (r *contestRepository) FindParticipants(contestID uuid.UUID) ([]domain.ContestParticipant, error) {
	var participants []domain.ContestParticipant
	result := r.db.
		Preload("User").
		Where("contest_id = ?", contestID).
		Find(&participants)
	return participants, result.Error
}

// AwardScore atomically adds points and stamps the finish time for a
// registered participant
func (r *contestRepository) AwardScore(contestID, userID uuid.UUID, points int, finishTime time.Time) error {
	result := r.db.Model(&domain.ContestParticipant{}).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		Updates(map[string]interface{}{
			"score":       gorm.Expr("score + ?", points),
			"finish_time": finishTime,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotRegistered
	}
	return nil
}
