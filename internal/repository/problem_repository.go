package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mafiacoder/backend/internal/domain"
)

// problemRepository implements domain.ProblemRepository using GORM
type problemRepository struct {
	db *gorm.DB
}

// NewProblemRepository creates a new problem repository
func NewProblemRepository(db *gorm.DB) domain.ProblemRepository {
	return &problemRepository{db: db}
}

// Create creates a new problem with its examples and test cases
func (r *problemRepository) Create(problem *domain.Problem) error {
	result := r.db.Create(problem)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrSlugTaken
		}
		return result.Error
	}
	return nil
}

// FindByID finds a problem by its ID (without judging data)
func (r *problemRepository) FindByID(id uuid.UUID) (*domain.Problem, error) {
	var problem domain.Problem
	result := r.db.
		Preload("Examples", orderedByPosition("problem_examples")).
		Where("id = ?", id).
		First(&problem)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProblemNotFound
		}
		return nil, result.Error
	}
	return &problem, nil
}

// FindBySlug finds a problem by its slug (without judging data)
func (r *problemRepository) FindBySlug(slug string) (*domain.Problem, error) {
	var problem domain.Problem
	result := r.db.
		Preload("Examples", orderedByPosition("problem_examples")).
		Where("slug = ?", slug).
		First(&problem)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProblemNotFound
		}
		return nil, result.Error
	}
	return &problem, nil
}

// FindBySlugWithTestCases loads the full judging data. Test cases come back
// ordered by position; judging relies on that order for short-circuit
// determinism.
func (r *problemRepository) FindBySlugWithTestCases(slug string) (*domain.Problem, error) {
	var problem domain.Problem
	result := r.db.
		Preload("Examples", orderedByPosition("problem_examples")).
		Preload("TestCases", orderedByPosition("problem_test_cases")).
		Where("slug = ?", slug).
		First(&problem)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProblemNotFound
		}
		return nil, result.Error
	}
	return &problem, nil
}

// FindByIDWithTestCases loads the full judging data by problem ID
func (r *problemRepository) FindByIDWithTestCases(id uuid.UUID) (*domain.Problem, error) {
	var problem domain.Problem
	result := r.db.
		Preload("Examples", orderedByPosition("problem_examples")).
		Preload("TestCases", orderedByPosition("problem_test_cases")).
		Where("id = ?", id).
		First(&problem)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProblemNotFound
		}
		return nil, result.Error
	}
	return &problem, nil
}

// FindAll returns problems matching the filter, without judging data
func (r *problemRepository) FindAll(filter domain.ProblemFilter) ([]domain.Problem, error) {
	query := r.db.Model(&domain.Problem{})
	if filter.Difficulty != nil {
		query = query.Where("difficulty = ?", *filter.Difficulty)
	}
	if filter.Tag != "" {
		query = query.Where("? = ANY(tags)", filter.Tag)
	}
	if filter.Company != "" {
		query = query.Where("? = ANY(companies)", filter.Company)
	}

	var problems []domain.Problem
	result := query.Order("title ASC").Find(&problems)
	return problems, result.Error
}

// AppendTestCases appends cases after the problem's current last position.
// Test cases are append-only; positions of existing cases never change.
func (r *problemRepository) AppendTestCases(problemID uuid.UUID, cases []domain.TestCase) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Problem{}).Where("id = ?", problemID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrProblemNotFound
		}

		var maxPos int
		if err := tx.Model(&domain.TestCase{}).
			Where("problem_id = ?", problemID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&maxPos).Error; err != nil {
			return err
		}

		for i := range cases {
			cases[i].ProblemID = problemID
			cases[i].Position = maxPos + i + 1
		}
		return tx.Create(&cases).Error
	})
}

// RecordSubmission bumps the problem's aggregate submission counters
func (r *problemRepository) RecordSubmission(problemID uuid.UUID, accepted bool) error {
	updates := map[string]interface{}{
		"submission_count": gorm.Expr("submission_count + 1"),
	}
	if accepted {
		updates["accepted_count"] = gorm.Expr("accepted_count + 1")
	}
	return r.db.Model(&domain.Problem{}).
		Where("id = ?", problemID).
		Updates(updates).Error
}

// orderedByPosition preloads an ordered child collection
func orderedByPosition(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".position ASC")
	}
}
