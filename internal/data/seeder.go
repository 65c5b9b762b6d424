// Package data seeds the database with a starter problem bank and the
// recurring weekend contests.
package data

import (
	_ "embed"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mafiacoder/backend/internal/domain"
)

//go:embed problems.json
var problemsData []byte

// problemJSON represents the JSON structure for seeded problems
type problemJSON struct {
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	Difficulty   string   `json:"difficulty"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	Companies    []string `json:"companies"`
	InputFormat  string   `json:"input_format"`
	OutputFormat string   `json:"output_format"`
	Constraints  string   `json:"constraints"`
	Examples     []struct {
		Input       string `json:"input"`
		Output      string `json:"output"`
		Explanation string `json:"explanation"`
	} `json:"examples"`
	TestCases []struct {
		Input    string `json:"input"`
		Output   string `json:"output"`
		IsHidden bool   `json:"is_hidden"`
	} `json:"test_cases"`
}

// Seeder handles database seeding operations
type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSeeder creates a new database seeder
func NewSeeder(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: logger,
	}
}

// SeedProblems seeds the problem bank from the embedded data. Runs only
// against an empty problems table.
func (s *Seeder) SeedProblems() error {
	var count int64
	if err := s.db.Model(&domain.Problem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("Problems already seeded, skipping",
			zap.Int64("count", count),
		)
		return nil
	}

	var problemsJSON []problemJSON
	if err := json.Unmarshal(problemsData, &problemsJSON); err != nil {
		return err
	}

	problems := make([]domain.Problem, len(problemsJSON))
	for i, p := range problemsJSON {
		problem := domain.Problem{
			ID:           uuid.New(),
			Title:        p.Title,
			Slug:         p.Slug,
			Description:  p.Description,
			Difficulty:   domain.Difficulty(p.Difficulty),
			Tags:         pq.StringArray(p.Tags),
			Companies:    pq.StringArray(p.Companies),
			InputFormat:  p.InputFormat,
			OutputFormat: p.OutputFormat,
			Constraints:  p.Constraints,
		}
		for j, ex := range p.Examples {
			problem.Examples = append(problem.Examples, domain.Example{
				Position:    j + 1,
				Input:       ex.Input,
				Output:      ex.Output,
				Explanation: ex.Explanation,
			})
		}
		for j, tc := range p.TestCases {
			problem.TestCases = append(problem.TestCases, domain.TestCase{
				Position:       j + 1,
				Input:          tc.Input,
				ExpectedOutput: tc.Output,
				IsHidden:       tc.IsHidden,
			})
		}
		problems[i] = problem
	}

	if err := s.db.CreateInBatches(problems, 50).Error; err != nil {
		return err
	}

	s.logger.Info("Successfully seeded problems",
		zap.Int("count", len(problems)),
	)
	return nil
}

// SeedWeekendContests ensures the upcoming weekend's contests exist: a
// Saturday showdown and a Sunday speed run, both 8pm to 10pm UTC with
// registration closing at the start. Already-created contests are left
// alone.
func (s *Seeder) SeedWeekendContests() error {
	var problems []domain.Problem
	if err := s.db.Order("slug").Limit(4).Find(&problems).Error; err != nil {
		return err
	}
	if len(problems) == 0 {
		s.logger.Warn("No problems available, skipping contest seeding")
		return nil
	}

	now := time.Now().UTC()
	contests := []domain.Contest{
		weekendContest("Saturday Showdown", nextWeekday(now, time.Saturday), problems),
		weekendContest("Sunday Speed Run", nextWeekday(now, time.Sunday), problems),
	}

	for _, contest := range contests {
		var count int64
		err := s.db.Model(&domain.Contest{}).
			Where("title = ? AND start_time = ?", contest.Title, contest.StartTime).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if err := s.db.Create(&contest).Error; err != nil {
			return err
		}
		s.logger.Info("Seeded weekend contest",
			zap.String("title", contest.Title),
			zap.Time("start_time", contest.StartTime),
		)
	}
	return nil
}

func weekendContest(title string, day time.Time, problems []domain.Problem) domain.Contest {
	start := time.Date(day.Year(), day.Month(), day.Day(), 20, 0, 0, 0, time.UTC)
	deadline := start
	return domain.Contest{
		ID:                   uuid.New(),
		Title:                title,
		Description:          "Weekly timed contest. Solve as many problems as you can before the clock runs out.",
		StartTime:            start,
		EndTime:              start.Add(2 * time.Hour),
		RegistrationDeadline: &deadline,
		Rules: pq.StringArray{
			"Each problem scores on your first accepted solution only.",
			"Ties break on earliest final accept.",
		},
		Prizes:   pq.StringArray{"Bragging rights", "Leaderboard feature"},
		Problems: problems,
	}
}

// nextWeekday returns the next occurrence of the weekday strictly after
// now's date when today already is that weekday.
func nextWeekday(now time.Time, day time.Weekday) time.Time {
	delta := (int(day) - int(now.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return now.AddDate(0, 0, delta)
}
