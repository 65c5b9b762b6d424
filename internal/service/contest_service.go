package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mafiacoder/backend/internal/domain"
)

// ContestService handles contest lifecycle, registration, and standings
type ContestService struct {
	contestRepo domain.ContestRepository
	problemRepo domain.ProblemRepository
	cache       *LeaderboardCache
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewContestService creates a new contest service
func NewContestService(
	contestRepo domain.ContestRepository,
	problemRepo domain.ProblemRepository,
	cache *LeaderboardCache,
	tracer trace.Tracer,
	logger *zap.Logger,
) *ContestService {
	return &ContestService{
		contestRepo: contestRepo,
		problemRepo: problemRepo,
		cache:       cache,
		tracer:      tracer,
		logger:      logger,
	}
}

// CreateContest creates a contest with the given problem set
func (s *ContestService) CreateContest(ctx context.Context, req *domain.CreateContestRequest) (*domain.Contest, error) {
	ctx, span := s.tracer.Start(ctx, "ContestService.CreateContest")
	defer span.End()

	problems := make([]domain.Problem, 0, len(req.ProblemIDs))
	for _, id := range req.ProblemIDs {
		problem, err := s.problemRepo.FindByID(id)
		if err != nil {
			return nil, err
		}
		problems = append(problems, *problem)
	}

	contest := &domain.Contest{
		ID:                   uuid.New(),
		Title:                req.Title,
		Description:          req.Description,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		RegistrationDeadline: req.RegistrationDeadline,
		Rules:                pq.StringArray(req.Rules),
		Prizes:               pq.StringArray(req.Prizes),
		Problems:             problems,
	}

	if err := s.contestRepo.Create(contest); err != nil {
		return nil, err
	}

	s.logger.Info("Contest created",
		zap.String("contest_id", contest.ID.String()),
		zap.String("title", contest.Title),
		zap.Time("start_time", contest.StartTime),
	)
	return contest, nil
}

// GetContests returns all contests, most recent first
func (s *ContestService) GetContests(ctx context.Context) ([]domain.Contest, error) {
	ctx, span := s.tracer.Start(ctx, "ContestService.GetContests")
	defer span.End()

	return s.contestRepo.FindAll()
}

// GetContest returns one contest with its problem set
func (s *ContestService) GetContest(ctx context.Context, id uuid.UUID) (*domain.Contest, error) {
	ctx, span := s.tracer.Start(ctx, "ContestService.GetContest")
	defer span.End()

	return s.contestRepo.FindByIDWithProblems(id)
}

// Register enrolls a user in a contest. The insert itself is conditional on
// the registration window, so two concurrent registrations (or a
// registration racing the deadline) resolve consistently: at most one row,
// never after the window closes.
func (s *ContestService) Register(ctx context.Context, contestID, userID uuid.UUID) (*domain.Contest, error) {
	ctx, span := s.tracer.Start(ctx, "ContestService.Register")
	defer span.End()

	span.SetAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("user.id", userID.String()),
	)

	contest, err := s.contestRepo.FindByID(contestID)
	if err != nil {
		return nil, err
	}

	inserted, err := s.contestRepo.AddParticipant(contestID, userID)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Disambiguate: a no-op insert means either a duplicate
		// registration or a closed window.
		if _, err := s.contestRepo.FindParticipant(contestID, userID); err == nil {
			return nil, domain.ErrAlreadyRegistered
		}
		return nil, domain.ErrRegistrationClosed
	}

	s.logger.Info("User registered for contest",
		zap.String("contest_id", contestID.String()),
		zap.String("user_id", userID.String()),
	)
	return contest, nil
}

// Leaderboard returns ranked standings for a contest. Ordering is score
// descending, then earliest finish time; participants who have not scored
// yet sort after everyone who has.
func (s *ContestService) Leaderboard(ctx context.Context, contestID uuid.UUID) ([]domain.LeaderboardEntry, error) {
	ctx, span := s.tracer.Start(ctx, "ContestService.Leaderboard")
	defer span.End()

	if entries, ok := s.cache.Get(ctx, contestID); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return entries, nil
	}

	if _, err := s.contestRepo.FindByID(contestID); err != nil {
		return nil, err
	}

	participants, err := s.contestRepo.FindParticipants(contestID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(participants, func(i, j int) bool {
		a, b := participants[i], participants[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.FinishTime == nil && b.FinishTime == nil:
			return false
		case a.FinishTime == nil:
			return false
		case b.FinishTime == nil:
			return true
		default:
			return a.FinishTime.Before(*b.FinishTime)
		}
	})

	entries := make([]domain.LeaderboardEntry, 0, len(participants))
	for i, p := range participants {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:       i + 1,
			UserID:     p.UserID,
			Username:   p.User.Username,
			Avatar:     p.User.Avatar,
			Score:      p.Score,
			FinishTime: p.FinishTime,
		})
	}

	s.cache.Set(ctx, contestID, entries)
	return entries, nil
}
