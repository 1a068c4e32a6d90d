package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"snapshare/internal/models"
	"snapshare/internal/repositories"
	"snapshare/internal/session"
	"snapshare/internal/storage"
	"snapshare/internal/validator"
	"snapshare/pkg/rabbitmq"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const profilePictureExts = "jpg jpeg png"

// dummyHash is compared against when the username is unknown so both login
// failures cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("snapshare-dummy-password"), bcrypt.DefaultCost)

// MediaStore is the part of the storage gateway the services use.
type MediaStore interface {
	Store(ctx context.Context, category storage.Category, up storage.Upload) (string, error)
	URLOrNil(ctx context.Context, key string) *string
	Delete(ctx context.Context, key string) error
}

// SignupInput is the registration form.
type SignupInput struct {
	Username        string          `json:"username" form:"username" validate:"required,max=150,username"`
	Email           string          `json:"email" form:"email" validate:"required,max=254,email"`
	Password        string          `json:"password1" form:"password1" validate:"required"`
	PasswordConfirm string          `json:"password2" form:"password2" validate:"required,eqfield=Password"`
	Role            models.Role     `json:"role" form:"role" validate:"omitempty,oneof=creator consumer"`
	Bio             string          `json:"bio" form:"bio" validate:"max=500"`
	ProfilePicture  *storage.Upload `json:"-" form:"-" validate:"-"`
}

// sessionClaims is the payload of a session token.
type sessionClaims struct {
	UserID   uint        `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.StandardClaims
}

// AuthService handles business logic for accounts and sessions.
type AuthService struct {
	userRepo  repositories.UserRepository
	sessions  session.Store
	media     MediaStore
	validate  *validator.Validator
	obs       Observers
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService. Session tokens are signed with
// secret and stay valid for ttl unless revoked earlier.
func NewAuthService(userRepo repositories.UserRepository, sessions session.Store, media MediaStore, secret string, ttl time.Duration, obs Observers) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		sessions:  sessions,
		media:     media,
		validate:  validator.New(),
		obs:       obs,
		jwtSecret: []byte(secret),
		tokenTTL:  ttl,
	}
}

// TokenTTL is how long an issued session token is valid.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// Signup validates the form, creates the account and signs the new user in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Role == "" {
		in.Role = models.RoleConsumer
	}

	var errs validator.ValidationErrors
	if err := errs.Merge(s.validate.Struct(in)); err != nil {
		return nil, "", err
	}
	if in.Password != "" {
		if problems := validator.PasswordProblems(in.Password, in.Username, in.Email); len(problems) > 0 {
			errs.Add("password1", strings.Join(problems, " "), "password")
		}
	}
	if in.ProfilePicture != nil {
		if err := errs.Merge(s.validate.Var("profile_picture", in.ProfilePicture.Filename, "file_ext="+profilePictureExts)); err != nil {
			return nil, "", err
		}
	}
	if err := s.checkUnique(ctx, in.Username, in.Email, &errs); err != nil {
		return nil, "", err
	}
	if len(errs) > 0 {
		return nil, "", errs
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashedPassword),
		Role:     in.Role,
		Bio:      in.Bio,
	}
	if in.ProfilePicture != nil {
		key, err := s.media.Store(ctx, storage.CategoryProfilePictures, *in.ProfilePicture)
		if err != nil {
			return nil, "", classify("failed to store profile picture", err)
		}
		user.ProfilePicture = key
		s.obs.Metrics.Uploaded(string(storage.CategoryProfilePictures))
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		discardUploads(ctx, s.media, s.obs, user.ProfilePicture)
		if errors.Is(err, repositories.ErrDuplicate) {
			// Lost a race with a concurrent signup.
			errs.Add("username", "A user with that username or email already exists.", "unique")
			return nil, "", errs
		}
		return nil, "", classify("failed to register user", err)
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.obs.logger().Info("user signed up", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	s.obs.Metrics.SignedUp()
	s.obs.publish(rabbitmq.EventUserSignedUp, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
	return user, token, nil
}

func (s *AuthService) checkUnique(ctx context.Context, username, email string, errs *validator.ValidationErrors) error {
	if username != "" {
		_, err := s.userRepo.GetByUsername(ctx, username)
		switch {
		case err == nil:
			errs.Add("username", "A user with that username already exists.", "unique")
		case !errors.Is(err, repositories.ErrNotFound):
			return classify("failed to check username", err)
		}
	}
	if email != "" {
		_, err := s.userRepo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			errs.Add("email", "User with this Email address already exists.", "unique")
		case !errors.Is(err, repositories.ErrNotFound):
			return classify("failed to check email", err)
		}
	}
	return nil
}

// Authenticate checks the credentials and opens a session. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return "", nil, classify("failed to load user", err)
		}
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.obs.Metrics.LoginAttempted(false)
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.obs.Metrics.LoginAttempted(false)
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}
	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		s.obs.logger().Warn("failed to record last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	s.obs.Metrics.LoginAttempted(true)
	s.obs.logger().Info("user logged in", zap.String("username", user.Username))
	return token, user, nil
}

func (s *AuthService) issueToken(ctx context.Context, user *models.User) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.sessions.Save(ctx, claims.Id, user.ID, s.tokenTTL); err != nil {
		return "", classify("failed to open session", err)
	}
	return token, nil
}

func (s *AuthService) parseToken(tokenString string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Id == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Logout revokes the session behind token. Malformed, expired and already
// revoked tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.Id); err != nil {
		return classify("failed to revoke session", err)
	}
	s.obs.logger().Info("user logged out", zap.String("username", claims.Username))
	return nil
}

// ValidateToken resolves a session token to the identity of its user.
// The token must carry a valid signature, be unexpired and still be live in
// the session store.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.parseToken(token)
	if err != nil {
		s.obs.logger().Debug("rejected session token", zap.Error(err))
		return nil, ErrUnauthenticated
	}

	userID, ok, err := s.sessions.Lookup(ctx, claims.Id)
	if err != nil {
		return nil, classify("failed to look up session", err)
	}
	if !ok || userID != claims.UserID {
		return nil, ErrUnauthenticated
	}

	// The role is read fresh so role changes apply to open sessions.
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, classify("failed to load session user", err)
	}
	return &models.Identity{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// CurrentUser returns the profile of the signed-in user.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, classify("failed to load profile", err)
	}
	return &models.UserProfile{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Role:           user.Role,
		ProfilePicture: s.media.URLOrNil(ctx, user.ProfilePicture),
		Bio:            user.Bio,
	}, nil
}

// ChangeRole assigns role to the named user.
func (s *AuthService) ChangeRole(ctx context.Context, username string, role models.Role) error {
	if !role.Valid() {
		var errs validator.ValidationErrors
		errs.Add("role", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", role), "oneof")
		return errs
	}
	if err := s.userRepo.UpdateRole(ctx, username, role); err != nil {
		return classify("failed to change role", err)
	}
	s.obs.logger().Info("role changed", zap.String("username", username), zap.String("role", string(role)))
	return nil
}
