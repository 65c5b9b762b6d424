package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mafiacoder/backend/internal/domain"
)

// ProblemService handles the problem bank and its judging test cases
type ProblemService struct {
	problemRepo domain.ProblemRepository
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewProblemService creates a new problem service
func NewProblemService(problemRepo domain.ProblemRepository, tracer trace.Tracer, logger *zap.Logger) *ProblemService {
	return &ProblemService{
		problemRepo: problemRepo,
		tracer:      tracer,
		logger:      logger,
	}
}

// GetProblems returns problems matching the filter
func (s *ProblemService) GetProblems(ctx context.Context, filter domain.ProblemFilter) ([]domain.Problem, error) {
	ctx, span := s.tracer.Start(ctx, "ProblemService.GetProblems")
	defer span.End()

	return s.problemRepo.FindAll(filter)
}

// GetProblemBySlug returns one problem with its visible examples.
// Test cases stay server-side.
func (s *ProblemService) GetProblemBySlug(ctx context.Context, problemSlug string) (*domain.Problem, error) {
	ctx, span := s.tracer.Start(ctx, "ProblemService.GetProblemBySlug")
	defer span.End()

	span.SetAttributes(attribute.String("problem.slug", problemSlug))
	return s.problemRepo.FindBySlug(problemSlug)
}

// CreateProblem creates a problem with its examples and test cases. The
// slug is derived from the title when the request leaves it empty.
func (s *ProblemService) CreateProblem(ctx context.Context, req *domain.CreateProblemRequest) (*domain.Problem, error) {
	ctx, span := s.tracer.Start(ctx, "ProblemService.CreateProblem")
	defer span.End()

	problemSlug := req.Slug
	if problemSlug == "" {
		problemSlug = slug.Make(req.Title)
	}
	span.SetAttributes(attribute.String("problem.slug", problemSlug))

	problem := &domain.Problem{
		ID:           uuid.New(),
		Title:        req.Title,
		Slug:         problemSlug,
		Description:  req.Description,
		Difficulty:   req.Difficulty,
		Tags:         pq.StringArray(req.Tags),
		Companies:    pq.StringArray(req.Companies),
		InputFormat:  req.InputFormat,
		OutputFormat: req.OutputFormat,
		Constraints:  req.Constraints,
	}

	for i, ex := range req.Examples {
		problem.Examples = append(problem.Examples, domain.Example{
			Position:    i + 1,
			Input:       ex.Input,
			Output:      ex.Output,
			Explanation: ex.Explanation,
		})
	}
	problem.TestCases = buildTestCases(req.TestCases, 0)

	if err := s.problemRepo.Create(problem); err != nil {
		return nil, err
	}

	s.logger.Info("Problem created",
		zap.String("problem_id", problem.ID.String()),
		zap.String("slug", problem.Slug),
		zap.Int("test_cases", len(problem.TestCases)),
	)
	return problem, nil
}

// AppendTestCases appends test cases to a problem after the existing ones.
// Existing cases keep their positions, so past submissions would fail at
// the same indexes if rejudged.
func (s *ProblemService) AppendTestCases(ctx context.Context, problemSlug string, reqs []domain.TestCaseRequest) (*domain.Problem, error) {
	ctx, span := s.tracer.Start(ctx, "ProblemService.AppendTestCases")
	defer span.End()

	span.SetAttributes(
		attribute.String("problem.slug", problemSlug),
		attribute.Int("test_cases.appended", len(reqs)),
	)

	problem, err := s.problemRepo.FindBySlugWithTestCases(problemSlug)
	if err != nil {
		return nil, err
	}

	// Positions are assigned inside the repository transaction, after the
	// current maximum.
	if err := s.problemRepo.AppendTestCases(problem.ID, buildTestCases(reqs, 0)); err != nil {
		return nil, err
	}

	return s.problemRepo.FindByIDWithTestCases(problem.ID)
}

// buildTestCases converts request DTOs, numbering positions after startPos.
// Hidden defaults to true when the request does not say otherwise.
func buildTestCases(reqs []domain.TestCaseRequest, startPos int) []domain.TestCase {
	cases := make([]domain.TestCase, 0, len(reqs))
	for i, tc := range reqs {
		hidden := true
		if tc.IsHidden != nil {
			hidden = *tc.IsHidden
		}
		cases = append(cases, domain.TestCase{
			Position:       startPos + i + 1,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			IsHidden:       hidden,
		})
	}
	return cases
}
