package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mafiacoder/backend/internal/domain"
)

// submissionRepository implements domain.SubmissionRepository using GORM
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *gorm.DB) domain.SubmissionRepository {
	return &submissionRepository{db: db}
}

// Create creates a new submission record (verdict defaults to Pending)
func (r *submissionRepository) Create(submission *domain.Submission) error {
	return r.db.Create(submission).Error
}

// FindByID finds a submission by its ID
func (r *submissionRepository) FindByID(id uuid.UUID) (*domain.Submission, error) {
	var submission domain.Submission
	result := r.db.Where("id = ?", id).First(&submission)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, result.Error
	}
	return &submission, nil
}

// FindByUserID returns all submissions for a user, newest first
func (r *submissionRepository) FindByUserID(userID uuid.UUID) ([]domain.Submission, error) {
	var submissions []domain.Submission
	result := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&submissions)
	return submissions, result.Error
}

// FinalizeVerdict writes the judge result iff the row is still Pending.
// The guard makes the Pending -> terminal transition happen at most once;
// a second finalize attempt matches zero rows and fails.
func (r *submissionRepository) FinalizeVerdict(id uuid.UUID, res domain.JudgeResult) error {
	result := r.db.Model(&domain.Submission{}).
		Where("id = ? AND verdict = ?", id, domain.VerdictPending).
		Updates(map[string]interface{}{
			"verdict":           res.Verdict,
			"score":             res.Score,
			"runtime_ms":        res.RuntimeMs,
			"memory_kb":         res.MemoryKB,
			"test_cases_passed": res.TestCasesPassed,
			"total_test_cases":  res.TotalTestCases,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the submission is gone or its verdict is already terminal
		var count int64
		if err := r.db.Model(&domain.Submission{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrSubmissionNotFound
		}
		return domain.ErrVerdictFinalized
	}
	return nil
}

// CountAccepted counts prior Accepted submissions by the user for the
// problem, optionally scoped to a contest
func (r *submissionRepository) CountAccepted(userID, problemID uuid.UUID, contestID *uuid.UUID) (int64, error) {
	query := r.db.Model(&domain.Submission{}).
		Where("user_id = ? AND problem_id = ? AND verdict = ?", userID, problemID, domain.VerdictAccepted)
	if contestID != nil {
		query = query.Where("contest_id = ?", *contestID)
	}

	var count int64
	result := query.Count(&count)
	return count, result.Error
}

// CountSolvedByDifficulty counts distinct accepted problems of a difficulty
func (r *submissionRepository) CountSolvedByDifficulty(userID uuid.UUID, difficulty domain.Difficulty) (int64, error) {
	var count int64
	result := r.db.Model(&domain.Submission{}).
		Joins("JOIN problems ON submissions.problem_id = problems.id").
		Where("submissions.user_id = ? AND submissions.verdict = ? AND problems.difficulty = ?",
			userID, domain.VerdictAccepted, difficulty).
		Distinct("submissions.problem_id").
		Count(&count)
	return count, result.Error
}
