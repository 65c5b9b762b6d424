package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role controls access to admin-only operations
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered user of the platform
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Avatar       string    `json:"avatar"`
	Role         Role      `json:"role" gorm:"type:varchar(10);not null;default:'user'"`

	// Gamification counters, incremented on Accepted verdicts
	XP     int `json:"xp" gorm:"not null;default:0"`
	Streak int `json:"streak" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	SolvedProblems []Problem `json:"-" gorm:"many2many:user_solved_problems"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// UserRepository defines the interface for user data access
// This abstraction allows for easy testing and swapping implementations
type UserRepository interface {
	Create(user *User) error
	FindByID(id uuid.UUID) (*User, error)
	FindByEmail(email string) (*User, error)
	// MarkSolved adds the problem to the user's solved set and bumps
	// xp/streak by the given amounts. The solved-set insert is idempotent
	// and the counter updates are atomic, so concurrent Accepted verdicts
	// for the same user are safe.
	MarkSolved(userID, problemID uuid.UUID, xpGain, streakGain int) error
	CountSolved(userID uuid.UUID) (int64, error)
	TopByXP(limit int) ([]User, error)
}

// UserCreateRequest represents the data needed to create a new user
type UserCreateRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8"`
}

// UserResponse represents the public user data returned by the API
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Role      Role      `json:"role"`
	XP        int       `json:"xp"`
	Streak    int       `json:"streak"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts a User to a UserResponse (hides sensitive data)
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Role:      u.Role,
		XP:        u.XP,
		Streak:    u.Streak,
		CreatedAt: u.CreatedAt,
	}
}

// UserProgress represents the user's overall progress statistics
type UserProgress struct {
	TotalSolved  int `json:"total_solved"`
	EasySolved   int `json:"easy_solved"`
	MediumSolved int `json:"medium_solved"`
	HardSolved   int `json:"hard_solved"`
	XP           int `json:"xp"`
	Streak       int `json:"streak"`
}

// GlobalLeaderboardEntry is one ranked row of the site-wide leaderboard
type GlobalLeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	Avatar      string    `json:"avatar"`
	XP          int       `json:"xp"`
	Streak      int       `json:"streak"`
	TotalSolved int64     `json:"total_solved"`
}
