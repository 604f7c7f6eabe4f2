package users

import (
	"auction-site/internal/auctionerrors"
	"auction-site/internal/auth"
	"auction-site/internal/imagestore"
	"auction-site/internal/models"
	"auction-site/internal/repository"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	gifBytes = append([]byte("GIF89a"), make([]byte, 32)...)
)

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T) (*UserService, *repository.MemoryRepo, *imagestore.FileStore) {
	t.Helper()
	repo := repository.NewMemoryRepo()
	images, err := imagestore.NewFileStore(filepath.Join(t.TempDir(), "images"))
	require.NoError(t, err)
	tokens := auth.NewTokenManager("test-secret", "auction-site-test", time.Hour)
	return NewUserService(repo, tokens, images), repo, images
}

func register(t *testing.T, s *UserService, email string) uint {
	t.Helper()
	id, err := s.Register(context.Background(), RegisterInput{FirstName: "Ann", LastName: "Lee", Email: email, Password: "secret1"})
	require.NoError(t, err)
	return id
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()
	s, repo, _ := newTestService(t)
	ctx := context.Background()

	id := register(t, s, "ann@example.com")
	stored, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	require.NotEqual(t, "secret1", stored.Password)
	require.True(t, auth.CheckPassword(stored.Password, "secret1"))

	tests := []struct {
		name          string
		input         RegisterInput
		expectedError error
	}{
		{name: "duplicate_email", input: RegisterInput{FirstName: "A", LastName: "B", Email: "ann@example.com", Password: "pw"}, expectedError: auctionerrors.ErrEmailInUse},
		{name: "invalid_email", input: RegisterInput{FirstName: "A", LastName: "B", Email: "not-an-email", Password: "pw"}, expectedError: auctionerrors.ErrInvalidUser},
		{name: "missing_first_name", input: RegisterInput{FirstName: "  ", LastName: "B", Email: "x@example.com", Password: "pw"}, expectedError: auctionerrors.ErrInvalidUser},
		{name: "missing_last_name", input: RegisterInput{FirstName: "A", Email: "x@example.com", Password: "pw"}, expectedError: auctionerrors.ErrInvalidUser},
		{name: "missing_password", input: RegisterInput{FirstName: "A", LastName: "B", Email: "x@example.com"}, expectedError: auctionerrors.ErrInvalidUser},
		{name: "password_too_long", input: RegisterInput{FirstName: "A", LastName: "B", Email: "x@example.com", Password: strings.Repeat("x", 80)}, expectedError: auctionerrors.ErrInvalidUser},
		{name: "multibyte_password_too_long", input: RegisterInput{FirstName: "A", LastName: "B", Email: "x@example.com", Password: strings.Repeat("é", 40)}, expectedError: auctionerrors.ErrInvalidUser},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Register(ctx, tc.input)
			require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
		})
	}

	longest := strings.Repeat("x", auth.MaxPasswordBytes)
	_, err = s.Register(ctx, RegisterInput{FirstName: "Max", LastName: "Len", Email: "max@example.com", Password: longest})
	require.NoError(t, err)
	_, err = s.Login(ctx, "max@example.com", longest)
	require.NoError(t, err)
}

func TestUserService_LoginLogoutAuthenticate(t *testing.T) {
	t.Parallel()
	s, _, _ := newTestService(t)
	ctx := context.Background()
	id := register(t, s, "ann@example.com")

	_, err := s.Login(ctx, "ann@example.com", "wrong")
	require.True(t, errors.Is(err, auctionerrors.ErrInvalidCredentials))
	_, err = s.Login(ctx, "nobody@example.com", "secret1")
	require.True(t, errors.Is(err, auctionerrors.ErrInvalidCredentials))

	res, err := s.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, id, res.UserID)
	require.NotEmpty(t, res.Token)

	user, err := s.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, id, user.UserID)

	// a second login replaces the stored token
	second, err := s.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, res.Token)
	require.True(t, errors.Is(err, auctionerrors.ErrUnauthorized))

	require.NoError(t, s.Logout(ctx, id))
	_, err = s.Authenticate(ctx, second.Token)
	require.True(t, errors.Is(err, auctionerrors.ErrUnauthorized))

	_, err = s.Authenticate(ctx, "")
	require.True(t, errors.Is(err, auctionerrors.ErrUnauthorized))
	_, err = s.Authenticate(ctx, "garbage")
	require.True(t, errors.Is(err, auctionerrors.ErrUnauthorized))
}

func TestUserService_LogoutSurvivesStaleProfileWrite(t *testing.T) {
	t.Parallel()
	s, repo, _ := newTestService(t)
	ctx := context.Background()
	id := register(t, s, "ann@example.com")

	res, err := s.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	// a profile edit that read the user before the logout lands after it
	stale, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx, id))
	stale.FirstName = "Annie"
	require.NoError(t, repo.UpdateUser(ctx, stale))

	_, err = s.Authenticate(ctx, res.Token)
	require.True(t, errors.Is(err, auctionerrors.ErrUnauthorized), "got: %v", err)

	view, err := s.GetUser(ctx, id, id)
	require.NoError(t, err)
	require.Equal(t, "Annie", view.FirstName)
}

func TestUserService_AuthenticateRejectsForeignSubject(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := repository.NewMockUserDB(ctrl)
	tokens := auth.NewTokenManager("test-secret", "auction-site-test", time.Hour)
	s := NewUserService(repo, tokens, nil)

	token, err := tokens.Issue(1)
	require.NoError(t, err)
	repo.EXPECT().GetUserByToken(gomock.Any(), token).Return(models.User{UserID: 2}, nil)

	_, err = s.Authenticate(context.Background(), token)
	require.True(t, errors.Is(err, auctionerrors.ErrUnauthorized))
}

func TestUserService_GetUser(t *testing.T) {
	t.Parallel()
	s, _, _ := newTestService(t)
	ctx := context.Background()
	id := register(t, s, "ann@example.com")
	other := register(t, s, "bob@example.com")

	tests := []struct {
		name      string
		requester uint
		wantEmail string
	}{
		{name: "self_sees_email", requester: id, wantEmail: "ann@example.com"},
		{name: "other_user_hidden", requester: other, wantEmail: ""},
		{name: "anonymous_hidden", requester: 0, wantEmail: ""},
	}
	for _, tc := range tests {
		view, err := s.GetUser(ctx, id, tc.requester)
		require.NoError(t, err, tc.name)
		require.Equal(t, "Ann", view.FirstName, tc.name)
		require.Equal(t, tc.wantEmail, view.Email, tc.name)
	}

	_, err := s.GetUser(ctx, 999, 0)
	require.True(t, errors.Is(err, auctionerrors.ErrUserNotFound))
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()
	s, repo, _ := newTestService(t)
	ctx := context.Background()
	id := register(t, s, "ann@example.com")
	other := register(t, s, "bob@example.com")

	tests := []struct {
		name          string
		userID        uint
		requester     uint
		input         UpdateInput
		expectedError error
	}{
		{name: "not_found", userID: 999, requester: 999, input: UpdateInput{}, expectedError: auctionerrors.ErrUserNotFound},
		{name: "other_user", userID: id, requester: other, input: UpdateInput{FirstName: strPtr("X")}, expectedError: auctionerrors.ErrForbidden},
		{name: "empty_first_name", userID: id, requester: id, input: UpdateInput{FirstName: strPtr(" ")}, expectedError: auctionerrors.ErrInvalidUser},
		{name: "empty_last_name", userID: id, requester: id, input: UpdateInput{LastName: strPtr("")}, expectedError: auctionerrors.ErrInvalidUser},
		{name: "invalid_email", userID: id, requester: id, input: UpdateInput{Email: strPtr("nope")}, expectedError: auctionerrors.ErrInvalidUser},
		{name: "email_taken", userID: id, requester: id, input: UpdateInput{Email: strPtr("bob@example.com")}, expectedError: auctionerrors.ErrEmailInUse},
		{name: "password_without_current", userID: id, requester: id, input: UpdateInput{Password: strPtr("new")}, expectedError: auctionerrors.ErrInvalidUser},
		{name: "password_wrong_current", userID: id, requester: id, input: UpdateInput{Password: strPtr("new"), CurrentPassword: strPtr("bad")}, expectedError: auctionerrors.ErrWrongPassword},
		{name: "password_unchanged", userID: id, requester: id, input: UpdateInput{Password: strPtr("secret1"), CurrentPassword: strPtr("secret1")}, expectedError: auctionerrors.ErrForbidden},
		{name: "empty_new_password", userID: id, requester: id, input: UpdateInput{Password: strPtr(""), CurrentPassword: strPtr("secret1")}, expectedError: auctionerrors.ErrInvalidUser},
		{name: "new_password_too_long", userID: id, requester: id, input: UpdateInput{Password: strPtr(strings.Repeat("x", 80)), CurrentPassword: strPtr("secret1")}, expectedError: auctionerrors.ErrInvalidUser},
	}
	for _, tc := range tests {
		err := s.UpdateUser(ctx, tc.userID, tc.requester, tc.input)
		require.True(t, errors.Is(err, tc.expectedError), "%s: expected %v, got %v", tc.name, tc.expectedError, err)
	}

	err := s.UpdateUser(ctx, id, id, UpdateInput{
		FirstName:       strPtr("Anna"),
		Email:           strPtr("anna@example.com"),
		Password:        strPtr("secret2"),
		CurrentPassword: strPtr("secret1"),
	})
	require.NoError(t, err)

	stored, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Anna", stored.FirstName)
	require.Equal(t, "Lee", stored.LastName)
	require.Equal(t, "anna@example.com", stored.Email)

	_, err = s.Login(ctx, "anna@example.com", "secret1")
	require.True(t, errors.Is(err, auctionerrors.ErrInvalidCredentials))
	_, err = s.Login(ctx, "anna@example.com", "secret2")
	require.NoError(t, err)
}

func TestUserService_Images(t *testing.T) {
	t.Parallel()
	s, repo, _ := newTestService(t)
	ctx := context.Background()
	id := register(t, s, "ann@example.com")
	other := register(t, s, "bob@example.com")

	_, err := s.GetImage(ctx, id)
	require.True(t, errors.Is(err, auctionerrors.ErrImageNotFound))
	require.True(t, errors.Is(s.DeleteImage(ctx, id, id), auctionerrors.ErrImageNotFound))

	_, err = s.SetImage(ctx, id, other, pngBytes, "image/png")
	require.True(t, errors.Is(err, auctionerrors.ErrForbidden))
	_, err = s.SetImage(ctx, 999, 999, pngBytes, "image/png")
	require.True(t, errors.Is(err, auctionerrors.ErrUserNotFound))
	_, err = s.SetImage(ctx, id, id, []byte("plain text"), "image/png")
	require.True(t, errors.Is(err, auctionerrors.ErrUnsupportedImage))

	created, err := s.SetImage(ctx, id, id, pngBytes, "image/png")
	require.NoError(t, err)
	require.True(t, created)

	img, err := s.GetImage(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "image/png", img.ContentType)

	created, err = s.SetImage(ctx, id, id, gifBytes, "image/gif")
	require.NoError(t, err)
	require.False(t, created)
	img, err = s.GetImage(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "image/gif", img.ContentType)

	require.True(t, errors.Is(s.DeleteImage(ctx, id, other), auctionerrors.ErrForbidden))
	require.NoError(t, s.DeleteImage(ctx, id, id))
	stored, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	require.Empty(t, stored.ImageFilename)
	_, err = s.GetImage(ctx, id)
	require.True(t, errors.Is(err, auctionerrors.ErrImageNotFound))
}

func TestUserService_RepoFailures(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := repository.NewMockUserDB(ctrl)
	tokens := auth.NewTokenManager("test-secret", "auction-site-test", time.Hour)
	s := NewUserService(repo, tokens, nil)
	ctx := context.Background()
	dbErr := errors.New("db failure")

	repo.EXPECT().GetUserByEmail(gomock.Any(), "ann@example.com").Return(models.User{}, dbErr)
	_, err := s.Login(ctx, "ann@example.com", "pw")
	require.True(t, errors.Is(err, dbErr))
	require.False(t, errors.Is(err, auctionerrors.ErrInvalidCredentials))

	repo.EXPECT().SetAuthToken(gomock.Any(), uint(3), "").Return(dbErr)
	require.True(t, errors.Is(s.Logout(ctx, 3), dbErr))
}
