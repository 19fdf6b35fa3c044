package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"recette/internal/models"
	"recette/internal/repositories"
	"recette/pkg/rabbitmq"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Mailer publishes outbound mail events. *rabbitmq.Client satisfies it; tests
// pass a stub or nil.
type Mailer interface {
	PublishMailEvent(event rabbitmq.MailEvent) error
}

// AuthService handles business logic for authentication and sessions. Login
// is an explicit two-stage pipeline: ResolveIdentifier translates whatever
// the user typed into a canonical email, then Authenticate checks the
// password and issues a session token.
type AuthService struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	mailer      Mailer
	jwtSecret   []byte
	baseURL     string
	tokenDurat  time.Duration
}

// NewAuthService creates a new AuthService. mailer may be nil, in which case
// confirmation and reset mails are skipped (useful in tests).
func NewAuthService(userRepo repositories.UserRepository, profileRepo repositories.ProfileRepository, mailer Mailer, jwtSecret, baseURL string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		mailer:      mailer,
		jwtSecret:   []byte(jwtSecret),
		baseURL:     strings.TrimRight(baseURL, "/"),
		tokenDurat:  24 * time.Hour,
	}
}

// ResolveIdentifier translates a login identifier into a canonical email. An
// identifier containing "@" is already an email; anything else is treated as
// a username and looked up against the profiles collection.
func (s *AuthService) ResolveIdentifier(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return identifier, nil
	}

	profile, err := s.profileRepo.GetByUsername(identifier)
	if err != nil {
		return "", ErrIdentifierNotFound
	}
	user, err := s.userRepo.GetByID(profile.UserID)
	if err != nil {
		return "", ErrIdentifierNotFound
	}
	return user.Email, nil
}

// Authenticate checks the password for an email and returns a session token.
func (s *AuthService) Authenticate(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		// Do not reveal whether the account exists.
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.Confirmed {
		return "", nil, ErrEmailNotConfirmed
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login runs the two-stage pipeline: resolve the identifier, then
// authenticate with the resolved email. An unknown username fails before any
// password check happens.
func (s *AuthService) Login(identifier, password string) (string, *models.User, error) {
	email, err := s.ResolveIdentifier(identifier)
	if err != nil {
		return "", nil, err
	}
	return s.Authenticate(email, password)
}

// Register creates an unconfirmed account, optionally attaches a username,
// and publishes the confirmation mail event carrying the redirect URL back
// into the app. Signup always requires a true email.
func (s *AuthService) Register(email, password, username, redirectURL string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, ErrEmailRegistered
	}

	if username != "" {
		if taken, err := s.UsernameTaken(username); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrUsernameTaken
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:             email,
		Password:          string(hashedPassword),
		Provider:          models.ProviderEmail,
		Confirmed:         false,
		ConfirmationToken: uuid.New().String(),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	if username != "" {
		if err := s.profileRepo.Upsert(&models.Profile{UserID: user.ID, Username: username}); err != nil {
			return nil, fmt.Errorf("failed to attach username: %w", err)
		}
	}

	s.sendMail(rabbitmq.MailEvent{
		Type:        rabbitmq.MailSignupConfirmation,
		To:          user.Email,
		Token:       user.ConfirmationToken,
		RedirectURL: redirectURL,
	})

	return user, nil
}

// ConfirmEmail consumes a confirmation token, marking the account confirmed.
func (s *AuthService) ConfirmEmail(token string) (*models.User, error) {
	user, err := s.userRepo.GetByConfirmationToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user.Confirmed = true
	user.ConfirmationToken = ""
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to confirm email: %w", err)
	}
	return user, nil
}

// RequestPasswordReset resolves the identifier the same way login does,
// stores a reset token and publishes the reset mail event.
func (s *AuthService) RequestPasswordReset(identifier, redirectURL string) error {
	email, err := s.ResolveIdentifier(identifier)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return ErrIdentifierNotFound
	}

	user.ResetToken = uuid.New().String()
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	s.sendMail(rabbitmq.MailEvent{
		Type:        rabbitmq.MailPasswordReset,
		To:          user.Email,
		Token:       user.ResetToken,
		RedirectURL: redirectURL,
	})
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	user, err := s.userRepo.GetByResetToken(token)
	if err != nil {
		return ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	user.ResetToken = ""
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// UpdatePassword changes the password of a logged-in user after checking the
// current one.
func (s *AuthService) UpdatePassword(userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// FindOrCreateOAuthUser returns the account for an OAuth email, creating a
// confirmed password-less account on first sign-in.
func (s *AuthService) FindOrCreateOAuthUser(email, provider string) (*models.User, error) {
	if user, err := s.userRepo.GetByEmail(email); err == nil {
		return user, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up OAuth user: %w", err)
	}

	user := &models.User{
		Email:     email,
		Provider:  provider,
		Confirmed: true, // the provider already verified the address
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create OAuth user: %w", err)
	}
	return user, nil
}

// SetUsername attaches a username to a user's profile. Usernames are
// immutable once set and must be unique.
func (s *AuthService) SetUsername(userID, username string) (*models.Profile, error) {
	if existing, err := s.profileRepo.GetByUserID(userID); err == nil && existing.Username != "" {
		if existing.Username == username {
			return existing, nil
		}
		return nil, ErrUsernameImmutable
	}

	if taken, err := s.UsernameTaken(username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}

	profile := &models.Profile{UserID: userID, Username: username}
	if err := s.profileRepo.Upsert(profile); err != nil {
		return nil, fmt.Errorf("failed to set username: %w", err)
	}
	return profile, nil
}

// UsernameTaken reports whether a username is already in use.
func (s *AuthService) UsernameTaken(username string) (bool, error) {
	_, err := s.profileRepo.GetByUsername(username)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check username: %w", err)
}

// Profile returns the profile row for a user, or an empty profile when none
// exists yet.
func (s *AuthService) Profile(userID string) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Profile{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// GenerateToken issues a session JWT for a user.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.tokenDurat).Unix(),
		"iat":     time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a session JWT, returning the claims if
// valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// CurrentUser resolves a session token to its user row, or returns nil when
// the token is absent or invalid (the "no user" session state).
func (s *AuthService) CurrentUser(tokenString string) *models.User {
	if tokenString == "" {
		return nil
	}
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil
	}
	userID, _ := claims["user_id"].(string)
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil
	}
	return user
}

// sendMail publishes a mail event, logging failures instead of failing the
// calling flow: the account change already happened, the mail is best effort.
func (s *AuthService) sendMail(event rabbitmq.MailEvent) {
	if s.mailer == nil {
		return
	}
	if s.baseURL != "" && event.RedirectURL == "" {
		event.RedirectURL = s.baseURL
	}
	if err := s.mailer.PublishMailEvent(event); err != nil {
		log.Printf("Failed to publish %s mail event for %s: %v", event.Type, event.To, err)
	}
}
