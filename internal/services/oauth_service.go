package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"recette/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthService runs the Google authorization-code flow and exchanges the
// provider identity for a first-party session token.
type OAuthService struct {
	authService *AuthService
	config      *oauth2.Config
	userinfoURL string
}

// NewGoogleOAuthService creates an OAuthService for Google sign-in.
// redirectURL is this application's callback route.
func NewGoogleOAuthService(authService *AuthService, clientID, clientSecret, redirectURL string) *OAuthService {
	return &OAuthService{
		authService: authService,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email"},
			Endpoint:     google.Endpoint,
		},
		userinfoURL: googleUserinfoURL,
	}
}

// AuthCodeURL builds the provider redirect URL. The state token must be
// cryptographically random and is checked again on the callback.
func (s *OAuthService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// HandleCallback exchanges the authorization code, fetches the verified
// email, finds or creates the account and issues a session token.
func (s *OAuthService) HandleCallback(ctx context.Context, code string) (string, *models.User, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("token exchange failed: %w", err)
	}

	email, err := s.fetchEmail(ctx, token)
	if err != nil {
		return "", nil, err
	}

	user, err := s.authService.FindOrCreateOAuthUser(email, models.ProviderGoogle)
	if err != nil {
		return "", nil, err
	}

	sessionToken, err := s.authService.GenerateToken(user)
	if err != nil {
		return "", nil, err
	}
	return sessionToken, user, nil
}

// fetchEmail queries the provider's userinfo endpoint with the exchanged
// token.
func (s *OAuthService) fetchEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	client := s.config.Client(ctx, token)
	resp, err := client.Get(s.userinfoURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo request returned status %d", resp.StatusCode)
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.Email == "" {
		return "", fmt.Errorf("userinfo response contained no email")
	}
	return info.Email, nil
}
