package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/oaustech/docportal/internal/app/models"
	"github.com/oaustech/docportal/internal/app/models/dto"
	"github.com/oaustech/docportal/internal/pkg/apperrors"
	"github.com/oaustech/docportal/internal/pkg/auth"
	"github.com/oaustech/docportal/internal/pkg/email"
	"github.com/oaustech/docportal/internal/pkg/filestorage"
	"github.com/oaustech/docportal/internal/workflow"
)

// MaxProfilePhotoSize caps profile pictures
const MaxProfilePhotoSize = 5 << 20

// profilePhotoPolicy accepts JPEG and PNG pictures
var profilePhotoPolicy = workflow.UploadPolicy{
	MaxSize:      MaxProfilePhotoSize,
	AllowedTypes: []string{"image/jpeg", "image/png"},
}

// AuthService handles registration, login and account lookups
type AuthService struct {
	repos      Repos
	tx         TxManager
	storage    filestorage.FileStorage
	urls       *URLResolver
	jwtService *auth.JWTService
	mailer     email.EmailService
	now        func() time.Time
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repos Repos,
	tx TxManager,
	storage filestorage.FileStorage,
	urls *URLResolver,
	jwtService *auth.JWTService,
	mailer email.EmailService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		repos:      repos,
		tx:         tx,
		storage:    storage,
		urls:       urls,
		jwtService: jwtService,
		mailer:     mailer,
		now:        time.Now,
		logger:     logger.With().Str("component", "auth_service").Logger(),
	}
}

// RegisterStudent creates a student account with its profile and signs the student in.
// photo is optional.
func (s *AuthService) RegisterStudent(ctx context.Context, req dto.RegisterStudentRequest, photo *workflow.File) (*dto.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	mail := strings.ToLower(strings.TrimSpace(req.Email))

	// checked up front so a duplicate never uploads a photo; the unique constraints still decide races
	if taken, err := s.repos.Users.UsernameExists(ctx, username); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.ErrUsernameAlreadyExists
	}
	if taken, err := s.repos.Users.EmailExists(ctx, mail); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	var photoRef *string
	if photo != nil {
		ref, err := s.storePhoto(ctx, *photo)
		if err != nil {
			return nil, err
		}
		photoRef = &ref
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		s.discardPhoto(photoRef)
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    mail,
		Password: hashed,
		RoleType: models.RoleStudent,
	}
	student := &models.Student{
		FullName:        strings.TrimSpace(req.Name),
		Department:      req.Department,
		Level:           req.Level,
		ProfilePhotoRef: photoRef,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos Repos) error {
		id, err := repos.Users.CreateUser(ctx, user)
		if err != nil {
			return err
		}
		student.UserID = id
		return repos.Students.CreateStudent(ctx, student)
	})
	if err != nil {
		s.discardPhoto(photoRef)
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("username", user.Username).Msg("Student registered")
	if s.mailer != nil {
		if err := s.mailer.SendWelcomeEmail(user.Email, student.FullName, user.Username); err != nil {
			s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to send welcome email")
		}
	}
	return s.issue(user)
}

func (s *AuthService) storePhoto(ctx context.Context, photo workflow.File) (string, error) {
	photo, err := sniffContentType(photo)
	if err != nil {
		return "", err
	}
	if err := profilePhotoPolicy.Validate(photo); err != nil {
		return "", err
	}
	ref, err := s.storage.Put(ctx, filestorage.ProfileKey(photo.Name), photo.Reader, photo.Size, workflow.NormalizeContentType(photo.ContentType))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return ref, nil
}

func (s *AuthService) discardPhoto(ref *string) {
	if ref == nil {
		return
	}
	if err := s.storage.Delete(context.Background(), *ref); err != nil {
		s.logger.Warn().Err(err).Str("ref", *ref).Msg("Failed to delete orphaned profile photo")
	}
}

// Login checks credentials and issues a one-hour session token
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repos.Users.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Warn().Str("username", user.Username).Msg("Failed login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repos.Users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to record last login")
	} else {
		user.LastLoginAt = &now
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.jwtService.GenerateToken(user.ID, user.Username, user.RoleType)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   s.jwtService.ExpiresIn(),
			ExpiresAt:   expiresAt,
		},
		User: dto.NewUserResponse(user),
	}, nil
}

// Profile returns the signed-in user and, for students, their profile
func (s *AuthService) Profile(ctx context.Context, sess workflow.Session) (*dto.ProfileResponse, error) {
	user, err := s.repos.Users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProfileResponse{User: dto.NewUserResponse(user)}
	if user.RoleType != models.RoleStudent {
		return resp, nil
	}

	student, err := s.repos.Students.GetStudentByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	sr := dto.NewStudentResponse(student, s.urls.Photo(ctx, student.UserID, student.ProfilePhotoRef))
	resp.Student = &sr
	return resp, nil
}

// OpenProfilePhoto streams a student's profile picture
func (s *AuthService) OpenProfilePhoto(ctx context.Context, sess workflow.Session, studentID int64) (io.ReadCloser, error) {
	if !sess.CanAccessStudent(studentID) {
		return nil, apperrors.NewForbiddenError("You cannot view this profile")
	}
	student, err := s.repos.Students.GetStudentByUserID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.ProfilePhotoRef == nil {
		return nil, apperrors.NewResourceNotFoundError("Student has no profile photo")
	}
	rc, err := s.storage.Open(ctx, *student.ProfilePhotoRef)
	if err != nil {
		if errors.Is(err, filestorage.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Profile photo not found")
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return rc, nil
}

// CreateAdmin creates another admin account. Only admins may call it.
func (s *AuthService) CreateAdmin(ctx context.Context, sess workflow.Session, req dto.CreateAdminRequest) (*dto.UserResponse, error) {
	if !sess.IsAdmin() {
		return nil, apperrors.NewForbiddenError("Only admins can create admin accounts")
	}
	user, err := s.EnsureAdmin(ctx, req.Username, req.Password, req.Email)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// EnsureAdmin creates an admin account, failing if the username is taken
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password, emailAddr string) (*models.User, error) {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	user := &models.User{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(emailAddr)),
		Password: hashed,
		RoleType: models.RoleAdmin,
	}
	if _, err := s.repos.Users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userID", user.ID).Str("username", user.Username).Msg("Admin account created")
	return user, nil
}
