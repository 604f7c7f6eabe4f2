package users

import (
	"auction-site/internal/auctionerrors"
	"auction-site/internal/auth"
	"auction-site/internal/imagestore"
	"auction-site/internal/models"
	"auction-site/internal/repository"
	"auction-site/utils"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// UserService handles registration, sessions, profiles and profile images
type UserService struct {
	repo   repository.UserDB
	tokens *auth.TokenManager
	images imagestore.Store
}

// NewUserService creates a new UserService instance
func NewUserService(repo repository.UserDB, tokens *auth.TokenManager, images imagestore.Store) *UserService {
	return &UserService{repo: repo, tokens: tokens, images: images}
}

// RegisterInput holds the fields of a new account
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// LoginResult is returned on a successful login
type LoginResult struct {
	UserID uint   `json:"userId"`
	Token  string `json:"token"`
}

// UserView is the public profile; Email is only set for the user themself
type UserView struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

// UpdateInput carries the fields to change; nil fields are left alone
type UpdateInput struct {
	FirstName       *string
	LastName        *string
	Email           *string
	Password        *string
	CurrentPassword *string
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func validPassword(password string) error {
	if password == "" {
		return fmt.Errorf("service: %w - password is required", auctionerrors.ErrInvalidUser)
	}
	if len(password) > auth.MaxPasswordBytes {
		return fmt.Errorf("service: %w - password must be at most %d bytes", auctionerrors.ErrInvalidUser, auth.MaxPasswordBytes)
	}
	return nil
}

// Register creates an account and returns its id
func (s *UserService) Register(ctx context.Context, in RegisterInput) (uint, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)

	if in.FirstName == "" || in.LastName == "" {
		return 0, fmt.Errorf("service: %w - first and last name are required", auctionerrors.ErrInvalidUser)
	}
	if !validEmail(in.Email) {
		return 0, fmt.Errorf("service: %w - invalid email %q", auctionerrors.ErrInvalidUser, in.Email)
	}
	if err := validPassword(in.Password); err != nil {
		return 0, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return 0, fmt.Errorf("service: %w", err)
	}
	user := models.User{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
	}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return 0, fmt.Errorf("service: failed to register %s: %w", in.Email, err)
	}
	return user.UserID, nil
}

// Login checks the credentials and stores a fresh session token
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, auctionerrors.ErrUserNotFound) {
		return LoginResult{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidCredentials)
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("service: failed to look up %s: %w", email, err)
	}
	if !auth.CheckPassword(user.Password, password) {
		return LoginResult{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.UserID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("service: %w", err)
	}
	if err := s.repo.SetAuthToken(ctx, user.UserID, token); err != nil {
		return LoginResult{}, fmt.Errorf("service: failed to store token for user %d: %w", user.UserID, err)
	}
	return LoginResult{UserID: user.UserID, Token: token}, nil
}

// Logout revokes the user's current token
func (s *UserService) Logout(ctx context.Context, userID uint) error {
	if err := s.repo.SetAuthToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("service: failed to log out user %d: %w", userID, err)
	}
	return nil
}

// Authenticate resolves a token to its user. The token must verify and still be the user's current one.
func (s *UserService) Authenticate(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, fmt.Errorf("service: %w - missing token", auctionerrors.ErrUnauthorized)
	}
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, fmt.Errorf("service: %w", err)
	}
	user, err := s.repo.GetUserByToken(ctx, token)
	if errors.Is(err, auctionerrors.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("service: %w - token revoked", auctionerrors.ErrUnauthorized)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("service: %w", err)
	}
	if user.UserID != userID {
		return models.User{}, fmt.Errorf("service: %w - token subject mismatch", auctionerrors.ErrUnauthorized)
	}
	return user, nil
}

// GetUser returns a profile; the email is included only when requesterID is the same user
func (s *UserService) GetUser(ctx context.Context, userID, requesterID uint) (UserView, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return UserView{}, fmt.Errorf("service: failed to get user %d: %w", userID, err)
	}
	view := UserView{FirstName: user.FirstName, LastName: user.LastName}
	if requesterID != 0 && requesterID == userID {
		view.Email = user.Email
	}
	return view, nil
}

// UpdateUser applies a partial update. Only the user may edit themself and a password change needs the current password.
func (s *UserService) UpdateUser(ctx context.Context, userID, requesterID uint, in UpdateInput) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("service: failed to get user %d: %w", userID, err)
	}
	if requesterID != userID {
		return fmt.Errorf("service: %w - cannot edit another user", auctionerrors.ErrForbidden)
	}

	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if v == "" {
			return fmt.Errorf("service: %w - first name cannot be empty", auctionerrors.ErrInvalidUser)
		}
		user.FirstName = v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		if v == "" {
			return fmt.Errorf("service: %w - last name cannot be empty", auctionerrors.ErrInvalidUser)
		}
		user.LastName = v
	}
	if in.Email != nil {
		v := strings.TrimSpace(*in.Email)
		if !validEmail(v) {
			return fmt.Errorf("service: %w - invalid email %q", auctionerrors.ErrInvalidUser, v)
		}
		user.Email = v
	}
	if in.Password != nil {
		if err := validPassword(*in.Password); err != nil {
			return err
		}
		if in.CurrentPassword == nil || *in.CurrentPassword == "" {
			return fmt.Errorf("service: %w - current password is required", auctionerrors.ErrInvalidUser)
		}
		if !auth.CheckPassword(user.Password, *in.CurrentPassword) {
			return fmt.Errorf("service: %w", auctionerrors.ErrWrongPassword)
		}
		if *in.Password == *in.CurrentPassword {
			return fmt.Errorf("service: %w - new password must differ from the current one", auctionerrors.ErrForbidden)
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return fmt.Errorf("service: %w", err)
		}
		user.Password = hash
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("service: failed to update user %d: %w", userID, err)
	}
	return nil
}

// GetImage returns the user's profile image
func (s *UserService) GetImage(ctx context.Context, userID uint) (imagestore.Image, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return imagestore.Image{}, fmt.Errorf("service: failed to get user %d: %w", userID, err)
	}
	if user.ImageFilename == "" {
		return imagestore.Image{}, fmt.Errorf("service: user %d: %w", userID, auctionerrors.ErrImageNotFound)
	}
	img, err := s.images.Load(user.ImageFilename)
	if err != nil {
		return imagestore.Image{}, fmt.Errorf("service: %w", err)
	}
	return img, nil
}

// SetImage stores a new profile image. created reports whether the user had no image before.
func (s *UserService) SetImage(ctx context.Context, userID, requesterID uint, data []byte, contentType string) (bool, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("service: failed to get user %d: %w", userID, err)
	}
	if requesterID != userID {
		return false, fmt.Errorf("service: %w - cannot change another user's image", auctionerrors.ErrForbidden)
	}

	filename, err := s.images.Save(fmt.Sprintf("user_%d", userID), data, contentType)
	if err != nil {
		return false, fmt.Errorf("service: %w", err)
	}
	previous := user.ImageFilename
	user.ImageFilename = filename
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		_ = s.images.Delete(filename)
		return false, fmt.Errorf("service: failed to set image for user %d: %w", userID, err)
	}
	if previous != "" {
		if err := s.images.Delete(previous); err != nil {
			utils.Warn("failed to remove replaced image", map[string]any{"userID": userID, "file": previous, "error": err.Error()})
		}
	}
	return previous == "", nil
}

// DeleteImage removes the user's profile image
func (s *UserService) DeleteImage(ctx context.Context, userID, requesterID uint) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("service: failed to get user %d: %w", userID, err)
	}
	if requesterID != userID {
		return fmt.Errorf("service: %w - cannot delete another user's image", auctionerrors.ErrForbidden)
	}
	if user.ImageFilename == "" {
		return fmt.Errorf("service: user %d: %w", userID, auctionerrors.ErrImageNotFound)
	}

	previous := user.ImageFilename
	user.ImageFilename = ""
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("service: failed to delete image for user %d: %w", userID, err)
	}
	if err := s.images.Delete(previous); err != nil {
		utils.Warn("failed to remove image file", map[string]any{"userID": userID, "file": previous, "error": err.Error()})
	}
	return nil
}
