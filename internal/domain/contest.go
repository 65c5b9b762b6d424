package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ContestStatus represents the current state of a contest. It is derived
// from the clock rather than stored, so no transition job is needed.
type ContestStatus string

const (
	ContestStatusUpcoming ContestStatus = "Upcoming"
	ContestStatusLive     ContestStatus = "Live"
	ContestStatusEnded    ContestStatus = "Ended"
)

// Contest represents a scheduled competitive event
type Contest struct {
	ID                   uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title                string         `json:"title" gorm:"not null"`
	Description          string         `json:"description" gorm:"type:text"`
	StartTime            time.Time      `json:"start_time" gorm:"not null;index"`
	EndTime              time.Time      `json:"end_time" gorm:"not null"`
	RegistrationDeadline *time.Time     `json:"registration_deadline"`
	Rules                pq.StringArray `json:"rules" gorm:"type:text[]"`
	Prizes               pq.StringArray `json:"prizes" gorm:"type:text[]"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`

	// Relationships
	Problems     []Problem            `json:"problems,omitempty" gorm:"many2many:contest_problems"`
	Participants []ContestParticipant `json:"participants,omitempty" gorm:"foreignKey:ContestID"`
}

// TableName specifies the table name for GORM
func (Contest) TableName() string {
	return "contests"
}

// ContestParticipant is one registered user's row in a contest.
// The composite primary key guarantees at most one entry per user.
type ContestParticipant struct {
	ContestID  uuid.UUID  `json:"-" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;primaryKey"`
	Score      int        `json:"score" gorm:"not null;default:0"`
	FinishTime *time.Time `json:"finish_time"`

	// Relationships (for loading)
	User User `json:"user" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for GORM
func (ContestParticipant) TableName() string {
	return "contest_participants"
}

// Status derives the contest state from the given instant
func (c *Contest) Status(now time.Time) ContestStatus {
	switch {
	case now.Before(c.StartTime):
		return ContestStatusUpcoming
	case now.Before(c.EndTime):
		return ContestStatusLive
	default:
		return ContestStatusEnded
	}
}

// RegistrationOpen reports whether registration is still accepted at now.
// Without an explicit deadline, registration closes at the start time.
func (c *Contest) RegistrationOpen(now time.Time) bool {
	deadline := c.StartTime
	if c.RegistrationDeadline != nil {
		deadline = *c.RegistrationDeadline
	}
	return now.Before(deadline)
}

// ContestRepository defines the interface for contest data access
type ContestRepository interface {
	Create(contest *Contest) error
	FindByID(id uuid.UUID) (*Contest, error)
	FindByIDWithProblems(id uuid.UUID) (*Contest, error)
	FindAll() ([]Contest, error)
	// AddParticipant inserts the participant iff registration is still open
	// and the user is absent, as a single conditional statement. Returns
	// false when nothing was inserted.
	AddParticipant(contestID, userID uuid.UUID) (bool, error)
	FindParticipant(contestID, userID uuid.UUID) (*ContestParticipant, error)
	FindParticipants(contestID uuid.UUID) ([]ContestParticipant, error)
	// AwardScore atomically adds points and records the finish time for a
	// registered participant.
	AwardScore(contestID, userID uuid.UUID, points int, finishTime time.Time) error
}

// CreateContestRequest represents the data needed to create a contest
type CreateContestRequest struct {
	Title                string      `json:"title" binding:"required"`
	Description          string      `json:"description"`
	StartTime            time.Time   `json:"start_time" binding:"required"`
	EndTime              time.Time   `json:"end_time" binding:"required"`
	RegistrationDeadline *time.Time  `json:"registration_deadline"`
	Rules                []string    `json:"rules"`
	Prizes               []string    `json:"prizes"`
	ProblemIDs           []uuid.UUID `json:"problem_ids"`
}

// ContestResponse represents a contest in API responses
type ContestResponse struct {
	ID                   uuid.UUID         `json:"id"`
	Title                string            `json:"title"`
	Description          string            `json:"description"`
	StartTime            time.Time         `json:"start_time"`
	EndTime              time.Time         `json:"end_time"`
	RegistrationDeadline *time.Time        `json:"registration_deadline,omitempty"`
	Rules                []string          `json:"rules"`
	Prizes               []string          `json:"prizes"`
	Status               ContestStatus     `json:"status"`
	Problems             []ProblemResponse `json:"problems,omitempty"`
	ParticipantCount     int               `json:"participant_count"`
}

// ToResponse converts a Contest to a ContestResponse
func (c *Contest) ToResponse(now time.Time) ContestResponse {
	problems := make([]ProblemResponse, len(c.Problems))
	for i, p := range c.Problems {
		problems[i] = p.ToSummary()
	}

	return ContestResponse{
		ID:                   c.ID,
		Title:                c.Title,
		Description:          c.Description,
		StartTime:            c.StartTime,
		EndTime:              c.EndTime,
		RegistrationDeadline: c.RegistrationDeadline,
		Rules:                c.Rules,
		Prizes:               c.Prizes,
		Status:               c.Status(now),
		Problems:             problems,
		ParticipantCount:     len(c.Participants),
	}
}

// LeaderboardEntry is one ranked row of a contest leaderboard
type LeaderboardEntry struct {
	Rank       int        `json:"rank"`
	UserID     uuid.UUID  `json:"user_id"`
	Username   string     `json:"username"`
	Avatar     string     `json:"avatar"`
	Score      int        `json:"score"`
	FinishTime *time.Time `json:"finish_time,omitempty"`
}
