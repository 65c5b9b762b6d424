package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mafiacoder/backend/internal/domain"
	"github.com/mafiacoder/backend/internal/execution"
)

// In-memory repository fakes implementing the domain interfaces. They mirror
// the conditional-write semantics of the real repositories (Pending-only
// finalize, registration-window insert, idempotent solved set) so service
// behavior under races can be exercised without a database.

type fakeProblemRepo struct {
	mu       sync.Mutex
	problems map[uuid.UUID]*domain.Problem
}

func newFakeProblemRepo() *fakeProblemRepo {
	return &fakeProblemRepo{problems: make(map[uuid.UUID]*domain.Problem)}
}

func (r *fakeProblemRepo) Create(problem *domain.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.problems {
		if p.Slug == problem.Slug {
			return domain.ErrSlugTaken
		}
	}
	if problem.ID == uuid.Nil {
		problem.ID = uuid.New()
	}
	r.problems[problem.ID] = problem
	return nil
}

func (r *fakeProblemRepo) FindByID(id uuid.UUID) (*domain.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[id]
	if !ok {
		return nil, domain.ErrProblemNotFound
	}
	return p, nil
}

func (r *fakeProblemRepo) FindBySlug(slug string) (*domain.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.problems {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, domain.ErrProblemNotFound
}

func (r *fakeProblemRepo) FindBySlugWithTestCases(slug string) (*domain.Problem, error) {
	return r.FindBySlug(slug)
}

func (r *fakeProblemRepo) FindByIDWithTestCases(id uuid.UUID) (*domain.Problem, error) {
	return r.FindByID(id)
}

func (r *fakeProblemRepo) FindAll(filter domain.ProblemFilter) ([]domain.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Problem
	for _, p := range r.problems {
		if filter.Difficulty != nil && p.Difficulty != *filter.Difficulty {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProblemRepo) AppendTestCases(problemID uuid.UUID, cases []domain.TestCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[problemID]
	if !ok {
		return domain.ErrProblemNotFound
	}
	base := len(p.TestCases)
	for i := range cases {
		cases[i].ProblemID = problemID
		cases[i].Position = base + i + 1
	}
	p.TestCases = append(p.TestCases, cases...)
	return nil
}

func (r *fakeProblemRepo) RecordSubmission(problemID uuid.UUID, accepted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[problemID]
	if !ok {
		return domain.ErrProblemNotFound
	}
	p.SubmissionCount++
	if accepted {
		p.AcceptedCount++
	}
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*domain.User
	solved map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[uuid.UUID]*domain.User),
		solved: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (r *fakeUserRepo) Create(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) MarkSolved(userID, problemID uuid.UUID, xpGain, streakGain int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if r.solved[userID] == nil {
		r.solved[userID] = make(map[uuid.UUID]bool)
	}
	r.solved[userID][problemID] = true
	u.XP += xpGain
	u.Streak += streakGain
	return nil
}

func (r *fakeUserRepo) CountSolved(userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.solved[userID])), nil
}

func (r *fakeUserRepo) TopByXP(limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].XP > out[i].XP {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeSubmissionRepo struct {
	mu           sync.Mutex
	submissions  map[uuid.UUID]*domain.Submission
	difficulties map[uuid.UUID]domain.Difficulty
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{
		submissions:  make(map[uuid.UUID]*domain.Submission),
		difficulties: make(map[uuid.UUID]domain.Difficulty),
	}
}

func (r *fakeSubmissionRepo) Create(sub *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.CreatedAt = time.Now()
	copied := *sub
	r.submissions[sub.ID] = &copied
	return nil
}

func (r *fakeSubmissionRepo) FindByID(id uuid.UUID) (*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSubmissionRepo) FindByUserID(userID uuid.UUID) ([]domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Submission
	for _, s := range r.submissions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) FinalizeVerdict(id uuid.UUID, result domain.JudgeResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	if s.Verdict != domain.VerdictPending {
		return domain.ErrVerdictFinalized
	}
	s.Verdict = result.Verdict
	s.Score = result.Score
	s.RuntimeMs = result.RuntimeMs
	s.MemoryKB = result.MemoryKB
	s.TestCasesPassed = result.TestCasesPassed
	s.TotalTestCases = result.TotalTestCases
	return nil
}

func (r *fakeSubmissionRepo) CountAccepted(userID, problemID uuid.UUID, contestID *uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, s := range r.submissions {
		if s.UserID != userID || s.ProblemID != problemID || s.Verdict != domain.VerdictAccepted {
			continue
		}
		if contestID != nil && (s.ContestID == nil || *s.ContestID != *contestID) {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeSubmissionRepo) CountSolvedByDifficulty(userID uuid.UUID, difficulty domain.Difficulty) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	for _, s := range r.submissions {
		if s.UserID == userID && s.Verdict == domain.VerdictAccepted && r.difficulties[s.ProblemID] == difficulty {
			seen[s.ProblemID] = true
		}
	}
	return int64(len(seen)), nil
}

type fakeContestRepo struct {
	mu           sync.Mutex
	contests     map[uuid.UUID]*domain.Contest
	participants map[uuid.UUID]map[uuid.UUID]*domain.ContestParticipant
	users        *fakeUserRepo
}

func newFakeContestRepo(users *fakeUserRepo) *fakeContestRepo {
	return &fakeContestRepo{
		contests:     make(map[uuid.UUID]*domain.Contest),
		participants: make(map[uuid.UUID]map[uuid.UUID]*domain.ContestParticipant),
		users:        users,
	}
}

func (r *fakeContestRepo) Create(contest *domain.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if contest.ID == uuid.Nil {
		contest.ID = uuid.New()
	}
	r.contests[contest.ID] = contest
	return nil
}

func (r *fakeContestRepo) FindByID(id uuid.UUID) (*domain.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return nil, domain.ErrContestNotFound
	}
	return c, nil
}

func (r *fakeContestRepo) FindByIDWithProblems(id uuid.UUID) (*domain.Contest, error) {
	return r.FindByID(id)
}

func (r *fakeContestRepo) FindAll() ([]domain.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Contest
	for _, c := range r.contests {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeContestRepo) AddParticipant(contestID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[contestID]
	if !ok {
		return false, nil
	}
	if !c.RegistrationOpen(time.Now()) {
		return false, nil
	}
	if r.participants[contestID] == nil {
		r.participants[contestID] = make(map[uuid.UUID]*domain.ContestParticipant)
	}
	if _, exists := r.participants[contestID][userID]; exists {
		return false, nil
	}
	r.participants[contestID][userID] = &domain.ContestParticipant{
		ContestID: contestID,
		UserID:    userID,
	}
	return true, nil
}

func (r *fakeContestRepo) FindParticipant(contestID, userID uuid.UUID) (*domain.ContestParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[contestID][userID]
	if !ok {
		return nil, domain.ErrNotRegistered
	}
	return p, nil
}

func (r *fakeContestRepo) FindParticipants(contestID uuid.UUID) ([]domain.ContestParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ContestParticipant
	for _, p := range r.participants[contestID] {
		entry := *p
		if r.users != nil {
			if u, err := r.users.FindByID(p.UserID); err == nil {
				entry.User = *u
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *fakeContestRepo) AwardScore(contestID, userID uuid.UUID, points int, finishTime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[contestID][userID]
	if !ok {
		return domain.ErrNotRegistered
	}
	p.Score += points
	ft := finishTime
	p.FinishTime = &ft
	return nil
}

// stubRunner scripts the execution backend per call
type stubRunner struct {
	mu      sync.Mutex
	calls   int
	execute func(call int, language, code, stdin string) (*execution.Result, error)
}

func (r *stubRunner) Execute(ctx context.Context, language, code, stdin string) (*execution.Result, error) {
	r.mu.Lock()
	r.calls++
	call := r.calls
	r.mu.Unlock()
	return r.execute(call, language, code, stdin)
}

func (r *stubRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// runOK builds a successful run result printing stdout
func runOK(stdout string) *execution.Result {
	return &execution.Result{
		Language: "python",
		Version:  "3.10.0",
		Run:      execution.Phase{Stdout: stdout},
	}
}
