package domain

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Difficulty represents the difficulty level of a problem
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Weight returns a numeric weight for sorting by difficulty
func (d Difficulty) Weight() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 0
	}
}

// Problem represents a coding problem in the bank
type Problem struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title        string         `json:"title" gorm:"not null"`
	Slug         string         `json:"slug" gorm:"uniqueIndex;not null"`
	Description  string         `json:"description" gorm:"type:text;not null"`
	Difficulty   Difficulty     `json:"difficulty" gorm:"type:varchar(10);not null"`
	Tags         pq.StringArray `json:"tags" gorm:"type:text[]"`
	Companies    pq.StringArray `json:"companies" gorm:"type:text[]"`
	InputFormat  string         `json:"input_format" gorm:"type:text"`
	OutputFormat string         `json:"output_format" gorm:"type:text"`
	Constraints  string         `json:"constraints" gorm:"type:text"`

	// Aggregate counters, maintained by the judging path
	SubmissionCount int     `json:"submission_count" gorm:"not null;default:0"`
	AcceptedCount   int     `json:"accepted_count" gorm:"not null;default:0"`

	// Relationships
	Examples  []Example  `json:"examples,omitempty" gorm:"foreignKey:ProblemID"`
	TestCases []TestCase `json:"-" gorm:"foreignKey:ProblemID"`
}

// TableName specifies the table name for GORM
func (Problem) TableName() string {
	return "problems"
}

// Example is a visible sample shown alongside the problem statement
type Example struct {
	ID          uuid.UUID `json:"-" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProblemID   uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	Position    int       `json:"-" gorm:"not null"`
	Input       string    `json:"input" gorm:"type:text"`
	Output      string    `json:"output" gorm:"type:text"`
	Explanation string    `json:"explanation" gorm:"type:text"`
}

// TableName specifies the table name for GORM
func (Example) TableName() string {
	return "problem_examples"
}

// TestCase is one (input, expected output) pair used for judging.
// Position fixes the judging order; hidden cases are never exposed by the API.
type TestCase struct {
	ID             uuid.UUID `json:"-" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProblemID      uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	Position       int       `json:"-" gorm:"not null"`
	Input          string    `json:"input" gorm:"type:text"`
	ExpectedOutput string    `json:"output" gorm:"type:text"`
	IsHidden       bool      `json:"is_hidden" gorm:"not null;default:true"`
}

// TableName specifies the table name for GORM
func (TestCase) TableName() string {
	return "problem_test_cases"
}

// ProblemRepository defines the interface for problem data access
type ProblemRepository interface {
	Create(problem *Problem) error
	FindByID(id uuid.UUID) (*Problem, error)
	FindBySlug(slug string) (*Problem, error)
	// FindBySlugWithTestCases loads the full judging data, test cases
	// ordered by position.
	FindBySlugWithTestCases(slug string) (*Problem, error)
	FindByIDWithTestCases(id uuid.UUID) (*Problem, error)
	FindAll(filter ProblemFilter) ([]Problem, error)
	AppendTestCases(problemID uuid.UUID, cases []TestCase) error
	RecordSubmission(problemID uuid.UUID, accepted bool) error
}

// ProblemFilter represents filtering options for problem queries
type ProblemFilter struct {
	Difficulty *Difficulty
	Tag        string
	Company    string
}

// CreateProblemRequest represents the data needed to create a new problem
type CreateProblemRequest struct {
	Title        string            `json:"title" binding:"required"`
	Slug         string            `json:"slug"`
	Description  string            `json:"description" binding:"required"`
	Difficulty   Difficulty        `json:"difficulty" binding:"required,oneof=Easy Medium Hard"`
	Tags         []string          `json:"tags"`
	Companies    []string          `json:"companies"`
	InputFormat  string            `json:"input_format"`
	OutputFormat string            `json:"output_format"`
	Constraints  string            `json:"constraints"`
	Examples     []ExampleRequest  `json:"examples"`
	TestCases    []TestCaseRequest `json:"test_cases"`
}

// ExampleRequest is a visible example in a create-problem request
type ExampleRequest struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation"`
}

// TestCaseRequest is a judging test case in a create/append request
type TestCaseRequest struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"output"`
	IsHidden       *bool  `json:"is_hidden"`
}

// ProblemResponse represents a problem in list/detail API responses.
// Judging data is stripped: hidden test cases never leave the server.
type ProblemResponse struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Description    string     `json:"description,omitempty"`
	Difficulty     Difficulty `json:"difficulty"`
	Tags           []string   `json:"tags"`
	Companies      []string   `json:"companies"`
	InputFormat    string     `json:"input_format,omitempty"`
	OutputFormat   string     `json:"output_format,omitempty"`
	Constraints    string     `json:"constraints,omitempty"`
	Examples       []Example  `json:"examples,omitempty"`
	AcceptanceRate float64    `json:"acceptance_rate"`
}

// AcceptanceRate returns the fraction of accepted submissions, 0 when unknown
func (p *Problem) AcceptanceRate() float64 {
	if p.SubmissionCount == 0 {
		return 0
	}
	return float64(p.AcceptedCount) / float64(p.SubmissionCount)
}

// ToSummary converts a Problem to a list-view response without statement bodies
func (p *Problem) ToSummary() ProblemResponse {
	return ProblemResponse{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		Difficulty:     p.Difficulty,
		Tags:           p.Tags,
		Companies:      p.Companies,
		AcceptanceRate: p.AcceptanceRate(),
	}
}

// ToResponse converts a Problem to a full detail response
func (p *Problem) ToResponse() ProblemResponse {
	resp := p.ToSummary()
	resp.Description = p.Description
	resp.InputFormat = p.InputFormat
	resp.OutputFormat = p.OutputFormat
	resp.Constraints = p.Constraints
	resp.Examples = p.Examples
	return resp
}
