package domain

import (
	"time"

	"github.com/google/uuid"
)

// Verdict is the terminal classification of a judged submission
type Verdict string

const (
	VerdictPending           Verdict = "Pending"
	VerdictAccepted          Verdict = "Accepted"
	VerdictWrongAnswer       Verdict = "Wrong Answer"
	VerdictTimeLimitExceeded Verdict = "Time Limit Exceeded"
	VerdictCompilationError  Verdict = "Compilation Error"
	VerdictRuntimeError      Verdict = "Runtime Error"
)

// Terminal reports whether the verdict is final. A submission transitions
// from Pending to exactly one terminal verdict per judging run.
func (v Verdict) Terminal() bool {
	switch v {
	case VerdictAccepted, VerdictWrongAnswer, VerdictTimeLimitExceeded,
		VerdictCompilationError, VerdictRuntimeError:
		return true
	}
	return false
}

// Submission represents one judged attempt at a problem
type Submission struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	ProblemID uuid.UUID  `json:"problem_id" gorm:"type:uuid;not null;index"`
	ContestID *uuid.UUID `json:"contest_id" gorm:"type:uuid;index"` // Optional, can solve outside a contest
	Code      string     `json:"code" gorm:"type:text;not null"`
	Language  string     `json:"language" gorm:"type:varchar(20);not null"`

	Verdict         Verdict `json:"verdict" gorm:"type:varchar(30);not null;default:'Pending'"`
	Score           int     `json:"score" gorm:"not null;default:0"`
	RuntimeMs       int     `json:"runtime_ms" gorm:"not null;default:0"`
	MemoryKB        int     `json:"memory_kb" gorm:"not null;default:0"`
	TestCasesPassed int     `json:"test_cases_passed" gorm:"not null;default:0"`
	TotalTestCases  int     `json:"total_test_cases" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User    User     `json:"-" gorm:"foreignKey:UserID"`
	Problem Problem  `json:"-" gorm:"foreignKey:ProblemID"`
	Contest *Contest `json:"-" gorm:"foreignKey:ContestID"`
}

// TableName specifies the table name for GORM
func (Submission) TableName() string {
	return "submissions"
}

// JudgeResult carries the outcome of one judging run, applied to the
// submission record in a single finalize step.
type JudgeResult struct {
	Verdict         Verdict
	Score           int
	RuntimeMs       int
	MemoryKB        int
	TestCasesPassed int
	TotalTestCases  int
}

// SubmissionRepository defines the interface for submission data access
type SubmissionRepository interface {
	Create(submission *Submission) error
	FindByID(id uuid.UUID) (*Submission, error)
	FindByUserID(userID uuid.UUID) ([]Submission, error)
	// FinalizeVerdict applies the judge result iff the stored verdict is
	// still Pending. Returns ErrVerdictFinalized when the row was already
	// terminal, so a verdict can never revert or be written twice.
	FinalizeVerdict(id uuid.UUID, result JudgeResult) error
	// CountAccepted reports prior Accepted submissions by the user for the
	// problem, scoped to a contest when contestID is non-nil.
	CountAccepted(userID, problemID uuid.UUID, contestID *uuid.UUID) (int64, error)
	CountSolvedByDifficulty(userID uuid.UUID, difficulty Difficulty) (int64, error)
}

// SubmissionRequest is the submit-solution request body
type SubmissionRequest struct {
	ProblemID uuid.UUID  `json:"problemId" binding:"required"`
	ContestID *uuid.UUID `json:"contestId"`
	Code      string     `json:"code" binding:"required"`
	Language  string     `json:"language" binding:"required"`
}

// SubmissionResponse represents a submission in API responses
type SubmissionResponse struct {
	ID              uuid.UUID  `json:"id"`
	ProblemID       uuid.UUID  `json:"problem_id"`
	ContestID       *uuid.UUID `json:"contest_id,omitempty"`
	Language        string     `json:"language"`
	Verdict         Verdict    `json:"verdict"`
	Score           int        `json:"score"`
	RuntimeMs       int        `json:"runtime_ms"`
	MemoryKB        int        `json:"memory_kb"`
	TestCasesPassed int        `json:"test_cases_passed"`
	TotalTestCases  int        `json:"total_test_cases"`
	SubmittedAt     time.Time  `json:"submitted_at"`
}

// ToResponse converts a Submission to a SubmissionResponse
func (s *Submission) ToResponse() SubmissionResponse {
	return SubmissionResponse{
		ID:              s.ID,
		ProblemID:       s.ProblemID,
		ContestID:       s.ContestID,
		Language:        s.Language,
		Verdict:         s.Verdict,
		Score:           s.Score,
		RuntimeMs:       s.RuntimeMs,
		MemoryKB:        s.MemoryKB,
		TestCasesPassed: s.TestCasesPassed,
		TotalTestCases:  s.TotalTestCases,
		SubmittedAt:     s.CreatedAt,
	}
}
