package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/mafiacoder/backend/internal/domain"
)

type contestFixture struct {
	service     *ContestService
	contestRepo *fakeContestRepo
	problemRepo *fakeProblemRepo
	userRepo    *fakeUserRepo
	redis       *miniredis.Miniredis
}

func newContestFixture(t *testing.T) *contestFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	userRepo := newFakeUserRepo()
	contestRepo := newFakeContestRepo(userRepo)
	problemRepo := newFakeProblemRepo()

	svc := NewContestService(
		contestRepo, problemRepo,
		NewLeaderboardCache(client, 30*time.Second, zap.NewNop()),
		noop.NewTracerProvider().Tracer("test"),
		zap.NewNop(),
	)

	return &contestFixture{
		service:     svc,
		contestRepo: contestRepo,
		problemRepo: problemRepo,
		userRepo:    userRepo,
		redis:       mr,
	}
}

func (f *contestFixture) upcomingContest(t *testing.T) *domain.Contest {
	t.Helper()
	now := time.Now()
	contest := &domain.Contest{
		ID:        uuid.New(),
		Title:     "Saturday Showdown",
		StartTime: now.Add(time.Hour),
		EndTime:   now.Add(3 * time.Hour),
	}
	require.NoError(t, f.contestRepo.Create(contest))
	return contest
}

func (f *contestFixture) newUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user := &domain.User{ID: uuid.New(), Username: username, Email: username + "@example.com"}
	require.NoError(t, f.userRepo.Create(user))
	return user
}

func TestRegisterSucceedsBeforeDeadline(t *testing.T) {
	f := newContestFixture(t)
	contest := f.upcomingContest(t)
	user := f.newUser(t, "alice")

	_, err := f.service.Register(context.Background(), contest.ID, user.ID)
	require.NoError(t, err)

	p, err := f.contestRepo.FindParticipant(contest.ID, user.ID)
	require.NoError(t, err)
	assert.Zero(t, p.Score)
}

func TestRegisterTwiceIsRejected(t *testing.T) {
	f := newContestFixture(t)
	contest := f.upcomingContest(t)
	user := f.newUser(t, "alice")

	_, err := f.service.Register(context.Background(), contest.ID, user.ID)
	require.NoError(t, err)

	_, err = f.service.Register(context.Background(), contest.ID, user.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
}

func TestRegisterAfterDeadlineIsRejected(t *testing.T) {
	f := newContestFixture(t)
	now := time.Now()
	deadline := now.Add(-time.Minute)
	contest := &domain.Contest{
		ID:                   uuid.New(),
		Title:                "Closed Contest",
		StartTime:            now.Add(time.Hour),
		EndTime:              now.Add(3 * time.Hour),
		RegistrationDeadline: &deadline,
	}
	require.NoError(t, f.contestRepo.Create(contest))
	user := f.newUser(t, "late")

	_, err := f.service.Register(context.Background(), contest.ID, user.ID)
	assert.ErrorIs(t, err, domain.ErrRegistrationClosed)
}

func TestRegisterUnknownContest(t *testing.T) {
	f := newContestFixture(t)
	user := f.newUser(t, "alice")

	_, err := f.service.Register(context.Background(), uuid.New(), user.ID)
	assert.ErrorIs(t, err, domain.ErrContestNotFound)
}

func TestLeaderboardOrdering(t *testing.T) {
	f := newContestFixture(t)
	contest := f.upcomingContest(t)

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")
	carol := f.newUser(t, "carol")
	dave := f.newUser(t, "dave")

	early := time.Now().Add(-30 * time.Minute)
	late := time.Now().Add(-10 * time.Minute)
	f.contestRepo.participants[contest.ID] = map[uuid.UUID]*domain.ContestParticipant{
		// Same score: carol finished earlier and ranks above bob
		bob.ID:   {ContestID: contest.ID, UserID: bob.ID, Score: 100, FinishTime: &late},
		carol.ID: {ContestID: contest.ID, UserID: carol.ID, Score: 100, FinishTime: &early},
		alice.ID: {ContestID: contest.ID, UserID: alice.ID, Score: 200, FinishTime: &late},
		// No accepted solutions yet: ranks last
		dave.ID: {ContestID: contest.ID, UserID: dave.ID},
	}

	entries, err := f.service.Leaderboard(context.Background(), contest.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, "carol", entries[1].Username)
	assert.Equal(t, "bob", entries[2].Username)
	assert.Equal(t, "dave", entries[3].Username)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestLeaderboardServedFromCache(t *testing.T) {
	f := newContestFixture(t)
	contest := f.upcomingContest(t)
	alice := f.newUser(t, "alice")
	f.contestRepo.participants[contest.ID] = map[uuid.UUID]*domain.ContestParticipant{
		alice.ID: {ContestID: contest.ID, UserID: alice.ID, Score: 100},
	}

	first, err := f.service.Leaderboard(context.Background(), contest.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Mutate the store; the cached standings still serve until the TTL
	f.contestRepo.participants[contest.ID][alice.ID].Score = 500

	cached, err := f.service.Leaderboard(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, cached[0].Score)

	// Past the TTL the fresh score shows up
	f.redis.FastForward(time.Minute)

	fresh, err := f.service.Leaderboard(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, fresh[0].Score)
}

func TestLeaderboardCacheInvalidation(t *testing.T) {
	f := newContestFixture(t)
	contest := f.upcomingContest(t)
	alice := f.newUser(t, "alice")
	f.contestRepo.participants[contest.ID] = map[uuid.UUID]*domain.ContestParticipant{
		alice.ID: {ContestID: contest.ID, UserID: alice.ID, Score: 100},
	}

	_, err := f.service.Leaderboard(context.Background(), contest.ID)
	require.NoError(t, err)

	f.contestRepo.participants[contest.ID][alice.ID].Score = 200
	f.service.cache.Invalidate(context.Background(), contest.ID)

	entries, err := f.service.Leaderboard(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, entries[0].Score)
}

func TestLeaderboardUnknownContest(t *testing.T) {
	f := newContestFixture(t)

	_, err := f.service.Leaderboard(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrContestNotFound)
}

func TestCreateContestRejectsUnknownProblem(t *testing.T) {
	f := newContestFixture(t)

	_, err := f.service.CreateContest(context.Background(), &domain.CreateContestRequest{
		Title:      "Broken",
		StartTime:  time.Now().Add(time.Hour),
		EndTime:    time.Now().Add(2 * time.Hour),
		ProblemIDs: []uuid.UUID{uuid.New()},
	})
	assert.ErrorIs(t, err, domain.ErrProblemNotFound)
}

func TestContestStatusDerivation(t *testing.T) {
	now := time.Now()
	contest := &domain.Contest{
		StartTime: now.Add(time.Hour),
		EndTime:   now.Add(2 * time.Hour),
	}

	assert.Equal(t, domain.ContestStatusUpcoming, contest.Status(now))
	assert.Equal(t, domain.ContestStatusLive, contest.Status(now.Add(90*time.Minute)))
	assert.Equal(t, domain.ContestStatusEnded, contest.Status(now.Add(3*time.Hour)))
}
