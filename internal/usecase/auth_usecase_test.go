package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type userRepoMock struct {
	mock.Mock
}

func (m *userRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *userRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *userRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

type stubIssuer struct {
	token string
}

func (s *stubIssuer) Issue(userID int64, now time.Time) (string, time.Time, error) {
	return s.token, now.Add(time.Hour), nil
}

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.t
}

func newAuthUsecase(users repo.UserRepository) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(
		users,
		usecase.NewBcryptPasswordHasher(bcrypt.MinCost),
		usecase.NewBcryptPasswordVerifier(),
		&stubIssuer{token: "token-123"},
		&fixedClock{t: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)},
	)
}

func TestRegister_HashesPasswordAndReturnsToken(t *testing.T) {
	users := new(userRepoMock)
	uc := newAuthUsecase(users)

	users.On("FindByEmail", mock.Anything, "taro@example.com").
		Return(model.User{}, repo.ErrNotFound)
	users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) {
			u := args.Get(1).(*model.User)
			u.ID = 1
			//平文がそのまま保存されていないこと
			assert.NotEqual(t, "password123", u.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")))
		}).
		Return(nil)

	out, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "taro@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.User.ID)
	assert.Equal(t, "taro@example.com", out.User.Email)
	assert.Equal(t, "token-123", out.Token)
	users.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(userRepoMock)
	uc := newAuthUsecase(users)

	users.On("FindByEmail", mock.Anything, "taro@example.com").
		Return(model.User{ID: 1, Email: "taro@example.com"}, nil)

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "taro@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, usecase.ErrEmailTaken)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_InvalidInput(t *testing.T) {
	users := new(userRepoMock)
	uc := newAuthUsecase(users)

	//email形式が壊れている
	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "not-an-email",
		Password: "password123",
	})
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)

	//パスワードが短い
	_, err = uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "taro@example.com",
		Password: "short",
	})
	he, ok = usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestLogin_Success(t *testing.T) {
	users := new(userRepoMock)
	uc := newAuthUsecase(users)

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	users.On("FindByEmail", mock.Anything, "taro@example.com").
		Return(model.User{ID: 7, Email: "taro@example.com", PasswordHash: string(hashed)}, nil)

	out, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "taro@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.User.ID)
	assert.Equal(t, "token-123", out.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(userRepoMock)
	uc := newAuthUsecase(users)

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	users.On("FindByEmail", mock.Anything, "taro@example.com").
		Return(model.User{ID: 7, Email: "taro@example.com", PasswordHash: string(hashed)}, nil)

	_, err = uc.Login(context.Background(), usecase.LoginInput{
		Email:    "taro@example.com",
		Password: "wrongpass",
	})
	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	users := new(userRepoMock)
	uc := newAuthUsecase(users)

	users.On("FindByEmail", mock.Anything, "nobody@example.com").
		Return(model.User{}, repo.ErrNotFound)

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	//存在しないemailとパスワード違いは同じエラーにする
	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)
}
