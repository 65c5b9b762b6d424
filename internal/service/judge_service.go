package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mafiacoder/backend/internal/domain"
	"github.com/mafiacoder/backend/internal/execution"
	"github.com/mafiacoder/backend/internal/infrastructure"
)

// JudgeService runs one submission against a problem's test case set and
// derives a verdict. Test cases are evaluated strictly in stored order and
// judging stops at the first failure, so a given submission always fails at
// the same test index under a deterministic runner.
type JudgeService struct {
	subRepo     domain.SubmissionRepository
	problemRepo domain.ProblemRepository
	userRepo    domain.UserRepository
	contestRepo domain.ContestRepository
	runner      execution.Runner
	cache       *LeaderboardCache
	config      *infrastructure.JudgeConfig
	metrics     *infrastructure.TelemetryMetrics
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewJudgeService creates a new judge service
func NewJudgeService(
	subRepo domain.SubmissionRepository,
	problemRepo domain.ProblemRepository,
	userRepo domain.UserRepository,
	contestRepo domain.ContestRepository,
	runner execution.Runner,
	cache *LeaderboardCache,
	config *infrastructure.JudgeConfig,
	metrics *infrastructure.TelemetryMetrics,
	tracer trace.Tracer,
	logger *zap.Logger,
) *JudgeService {
	return &JudgeService{
		subRepo:     subRepo,
		problemRepo: problemRepo,
		userRepo:    userRepo,
		contestRepo: contestRepo,
		runner:      runner,
		cache:       cache,
		config:      config,
		metrics:     metrics,
		tracer:      tracer,
		logger:      logger,
	}
}

// Submit judges one submission end to end: create the Pending record, run
// the test cases, finalize the verdict, and apply post-judging side effects.
// The caller blocks until judging completes.
func (s *JudgeService) Submit(ctx context.Context, userID uuid.UUID, req *domain.SubmissionRequest) (*domain.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "JudgeService.Submit")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("problem.id", req.ProblemID.String()),
		attribute.String("submission.language", req.Language),
	)

	// Reject unsupported languages before creating any state
	if _, err := execution.Normalize(req.Language); err != nil {
		return nil, err
	}

	problem, err := s.problemRepo.FindByIDWithTestCases(req.ProblemID)
	if err != nil {
		return nil, err
	}

	if req.ContestID != nil {
		if _, err := s.contestRepo.FindByID(*req.ContestID); err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.String("contest.id", req.ContestID.String()))
	}

	submission := &domain.Submission{
		ID:        uuid.New(),
		UserID:    userID,
		ProblemID: req.ProblemID,
		ContestID: req.ContestID,
		Code:      req.Code,
		Language:  req.Language,
		Verdict:   domain.VerdictPending,
	}
	if err := s.subRepo.Create(submission); err != nil {
		return nil, err
	}

	start := time.Now()
	result := s.judge(ctx, submission, problem.TestCases)

	// Prior-accept count is taken before the finalize write so the current
	// run does not count itself.
	var firstAccept bool
	if result.Verdict == domain.VerdictAccepted {
		prior, err := s.subRepo.CountAccepted(userID, req.ProblemID, req.ContestID)
		if err != nil {
			s.logger.Error("Failed to count prior accepted submissions", zap.Error(err))
		}
		firstAccept = err == nil && prior == 0
	}

	if err := s.subRepo.FinalizeVerdict(submission.ID, result); err != nil {
		if errors.Is(err, domain.ErrVerdictFinalized) {
			// Another writer beat us to the terminal verdict; ours is stale
			s.logger.Warn("Submission verdict already finalized",
				zap.String("submission_id", submission.ID.String()),
			)
			return s.subRepo.FindByID(submission.ID)
		}
		return nil, err
	}

	submission.Verdict = result.Verdict
	submission.Score = result.Score
	submission.RuntimeMs = result.RuntimeMs
	submission.TestCasesPassed = result.TestCasesPassed
	submission.TotalTestCases = result.TotalTestCases

	s.applySideEffects(ctx, submission, firstAccept)

	if s.metrics != nil {
		s.metrics.SubmissionsJudged.Add(ctx, 1, metric.WithAttributes(
			attribute.String("verdict", string(result.Verdict)),
		))
		s.metrics.JudgeDuration.Record(ctx, time.Since(start).Seconds())
	}

	s.logger.Info("Submission judged",
		zap.String("submission_id", submission.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("problem_slug", problem.Slug),
		zap.String("verdict", string(result.Verdict)),
		zap.Int("passed", result.TestCasesPassed),
		zap.Int("total", result.TotalTestCases),
	)

	span.SetAttributes(attribute.String("submission.verdict", string(result.Verdict)))
	return submission, nil
}

// judge runs the sequential short-circuit loop over the test cases. The
// verdict defaults to Accepted, so an empty test case set is vacuously
// accepted with 0/0 passed.
func (s *JudgeService) judge(ctx context.Context, sub *domain.Submission, cases []domain.TestCase) domain.JudgeResult {
	result := domain.JudgeResult{
		Verdict:        domain.VerdictAccepted,
		TotalTestCases: len(cases),
	}

	for i, tc := range cases {
		res, elapsed, err := s.runCase(ctx, sub.Language, sub.Code, tc.Input)
		result.RuntimeMs += int(elapsed.Milliseconds())

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				result.Verdict = domain.VerdictTimeLimitExceeded
			} else {
				// Runner infrastructure failures are folded into Runtime
				// Error rather than surfaced to the submitter.
				result.Verdict = domain.VerdictRuntimeError
			}
			s.logger.Warn("Test case execution failed",
				zap.String("submission_id", sub.ID.String()),
				zap.Int("test_index", i),
				zap.Error(err),
			)
			break
		}

		if res.Compile != nil && res.Compile.Code != 0 {
			result.Verdict = domain.VerdictCompilationError
			break
		}
		if res.Run.Code != 0 {
			result.Verdict = domain.VerdictRuntimeError
			break
		}

		if strings.TrimSpace(res.Run.Stdout) != strings.TrimSpace(tc.ExpectedOutput) {
			result.Verdict = domain.VerdictWrongAnswer
			break
		}

		result.TestCasesPassed++
	}

	if result.Verdict == domain.VerdictAccepted {
		result.Score = s.config.AcceptedScore
	}
	return result
}

// runCase executes one test case under the per-case wall-clock limit
func (s *JudgeService) runCase(ctx context.Context, language, code, input string) (*execution.Result, time.Duration, error) {
	caseCtx, cancel := context.WithTimeout(ctx, s.config.CaseTimeout)
	defer cancel()

	if s.metrics != nil {
		s.metrics.RunnerRequests.Add(ctx, 1)
	}

	start := time.Now()
	res, err := s.runner.Execute(caseCtx, language, code, input)
	return res, time.Since(start), err
}

// applySideEffects updates user progression, problem counters, and contest
// score after the verdict is final. Failures here are logged, not surfaced:
// the verdict itself has already been durably recorded.
func (s *JudgeService) applySideEffects(ctx context.Context, sub *domain.Submission, firstAccept bool) {
	accepted := sub.Verdict == domain.VerdictAccepted

	if err := s.problemRepo.RecordSubmission(sub.ProblemID, accepted); err != nil {
		s.logger.Error("Failed to update problem counters", zap.Error(err))
	}

	if !accepted {
		return
	}

	if err := s.userRepo.MarkSolved(sub.UserID, sub.ProblemID, s.config.AcceptedXP, 1); err != nil {
		s.logger.Error("Failed to update user progression",
			zap.String("user_id", sub.UserID.String()),
			zap.Error(err),
		)
	}
	if s.metrics != nil {
		s.metrics.ProblemsSolved.Add(ctx, 1)
	}

	if sub.ContestID == nil {
		return
	}
	s.scoreContest(ctx, sub, firstAccept)
}

// scoreContest awards contest points for the participant's first Accepted
// verdict on a problem while the contest is live. Repeat accepts of the
// same problem earn nothing; non-participants and out-of-window submissions
// keep their verdict but score no points.
func (s *JudgeService) scoreContest(ctx context.Context, sub *domain.Submission, firstAccept bool) {
	if !firstAccept {
		return
	}

	contest, err := s.contestRepo.FindByID(*sub.ContestID)
	if err != nil {
		s.logger.Error("Failed to load contest for scoring", zap.Error(err))
		return
	}

	now := time.Now()
	if contest.Status(now) != domain.ContestStatusLive {
		return
	}

	err = s.contestRepo.AwardScore(contest.ID, sub.UserID, s.config.AcceptedScore, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotRegistered) {
			return
		}
		s.logger.Error("Failed to award contest score",
			zap.String("contest_id", contest.ID.String()),
			zap.String("user_id", sub.UserID.String()),
			zap.Error(err),
		)
		return
	}

	s.cache.Invalidate(ctx, contest.ID)

	s.logger.Info("Contest score awarded",
		zap.String("contest_id", contest.ID.String()),
		zap.String("user_id", sub.UserID.String()),
		zap.Int("points", s.config.AcceptedScore),
	)
}
