package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/mafiacoder/backend/internal/domain"
	"github.com/mafiacoder/backend/internal/infrastructure"
)

func newUserFixture(t *testing.T) (*UserService, *fakeUserRepo, *fakeSubmissionRepo) {
	t.Helper()

	userRepo := newFakeUserRepo()
	subRepo := newFakeSubmissionRepo()
	jwtConfig := &infrastructure.JWTConfig{
		SecretKey:          "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		Issuer:             "mafiacoder-test",
	}

	svc := NewUserService(userRepo, subRepo, jwtConfig,
		noop.NewTracerProvider().Tracer("test"), zap.NewNop())
	return svc, userRepo, subRepo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	user, tokens, err := svc.Register(context.Background(), &domain.UserCreateRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.NotNil(t, tokens)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, domain.RoleUser, user.Role)
	// The hash, not the password, is stored
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	_, loginTokens, err := svc.Login(context.Background(), "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, loginTokens.AccessToken)

	_, _, err = svc.Login(context.Background(), "alice@example.com", "wrong password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	req := &domain.UserCreateRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
	}
	_, _, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestAccessTokenCarriesIdentityAndRole(t *testing.T) {
	svc, userRepo, _ := newUserFixture(t)

	admin := &domain.User{
		ID:           uuid.New(),
		Email:        "admin@example.com",
		Username:     "admin",
		PasswordHash: "x",
		Role:         domain.RoleAdmin,
	}
	require.NoError(t, userRepo.Create(admin))

	tokens, err := svc.generateTokenPair(admin)
	require.NoError(t, err)

	userID, role, err := svc.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, userID)
	assert.Equal(t, domain.RoleAdmin, role)

	// A refresh token is not an access token
	_, _, err = svc.ValidateAccessToken(tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, _, err = svc.ValidateAccessToken("garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, tokens, err := svc.Register(context.Background(), &domain.UserCreateRequest{
		Email:    "bob@example.com",
		Username: "bob",
		Password: "password123",
	})
	require.NoError(t, err)

	fresh, err := svc.RefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// An access token cannot be used as a refresh token
	_, err = svc.RefreshToken(context.Background(), tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestGetUserProgress(t *testing.T) {
	svc, userRepo, subRepo := newUserFixture(t)

	user := &domain.User{ID: uuid.New(), Email: "c@example.com", Username: "carol", XP: 30, Streak: 3}
	require.NoError(t, userRepo.Create(user))

	easy, medium := uuid.New(), uuid.New()
	subRepo.difficulties[easy] = domain.DifficultyEasy
	subRepo.difficulties[medium] = domain.DifficultyMedium

	for _, problemID := range []uuid.UUID{easy, easy, medium} {
		require.NoError(t, subRepo.Create(&domain.Submission{
			ID:        uuid.New(),
			UserID:    user.ID,
			ProblemID: problemID,
			Verdict:   domain.VerdictAccepted,
		}))
	}
	// A wrong answer does not count as solved
	require.NoError(t, subRepo.Create(&domain.Submission{
		ID:        uuid.New(),
		UserID:    user.ID,
		ProblemID: uuid.New(),
		Verdict:   domain.VerdictWrongAnswer,
	}))

	progress, err := svc.GetUserProgress(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, progress.EasySolved)
	assert.Equal(t, 1, progress.MediumSolved)
	assert.Zero(t, progress.HardSolved)
	assert.Equal(t, 2, progress.TotalSolved)
	assert.Equal(t, 30, progress.XP)
	assert.Equal(t, 3, progress.Streak)
}

func TestGlobalLeaderboardOrdering(t *testing.T) {
	svc, userRepo, _ := newUserFixture(t)

	for _, u := range []*domain.User{
		{ID: uuid.New(), Email: "a@x.com", Username: "low", XP: 10},
		{ID: uuid.New(), Email: "b@x.com", Username: "high", XP: 90},
		{ID: uuid.New(), Email: "c@x.com", Username: "mid", XP: 50},
	} {
		require.NoError(t, userRepo.Create(u))
	}

	entries, err := svc.GlobalLeaderboard(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "high", entries[0].Username)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "mid", entries[1].Username)
	assert.Equal(t, 2, entries[1].Rank)
}
