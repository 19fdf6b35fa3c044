package handlers

import (
	"log"

	"recette/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const oauthStateCookie = "oauth_state"

// AuthHandler handles HTTP requests for authentication and sessions.
type AuthHandler struct {
	authService  *services.AuthService
	oauthService *services.OAuthService
	validate     *validator.Validate
}

// NewAuthHandler creates a new AuthHandler. oauthService may be nil when no
// OAuth provider is configured.
func NewAuthHandler(authService *services.AuthService, oauthService *services.OAuthService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		oauthService: oauthService,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the authentication routes. guestOnly gates the
// routes that make no sense with a session; authRequired gates the ones that
// need one.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, guestOnly, authRequired fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", guestOnly, h.HandleRegister)
	authRoutes.Post("/login", guestOnly, h.HandleLogin)
	authRoutes.Get("/session", h.HandleSession)
	authRoutes.Post("/logout", h.HandleLogout)
	authRoutes.Get("/confirm", h.HandleConfirmEmail)
	authRoutes.Post("/password-reset/request", guestOnly, h.HandleResetRequest)
	authRoutes.Post("/password-reset/confirm", h.HandleResetConfirm)
	authRoutes.Put("/password", authRequired, h.HandleUpdatePassword)
	authRoutes.Get("/oauth/google", guestOnly, h.HandleGoogleRedirect)
	authRoutes.Get("/callback", h.HandleOAuthCallback)
}

// RegisterRequest is the signup payload. The identifier must be a true
// email; usernames ride along optionally and are attached to the profile.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Username        string `json:"username" validate:"omitempty,min=3,max=100,alphanum"`
	RedirectTo      string `json:"redirect_to" validate:"omitempty,url"`
}

// HandleRegister handles new user signup and triggers the confirmation mail.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Username, req.RedirectTo)
	if err != nil {
		log.Printf("Error registering user: %v", err)
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message": "Registration failed",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Check your email, we've sent you a confirmation link",
		"user":    user,
	})
}

// LoginRequest is the login payload. The identifier is either an email or a
// username, disambiguated by the presence of "@".
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// HandleLogin runs the two-stage identifier login and issues a session token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	token, user, err := h.authService.Login(req.Identifier, req.Password)
	if err != nil {
		log.Printf("Error during login for identifier %s: %v", req.Identifier, err)
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message": "Authentication failed",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// HandleSession reports the current session: the user when the presented
// token is valid, null otherwise. It never fails; "no user" is a valid
// session state.
func (h *AuthHandler) HandleSession(c *fiber.Ctx) error {
	user := h.authService.CurrentUser(bearerFrom(c))
	return c.JSON(fiber.Map{"user": user})
}

// HandleLogout ends the session. Tokens are stateless, so the server only
// acknowledges; the client discards the token.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// HandleConfirmEmail consumes an email-confirmation token and redirects back
// into the app when a redirect target rode along.
func (h *AuthHandler) HandleConfirmEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Missing confirmation token",
		})
	}

	user, err := h.authService.ConfirmEmail(token)
	if err != nil {
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message": "Confirmation failed",
			"error":   err.Error(),
		})
	}

	if redirectTo := c.Query("redirect_to"); redirectTo != "" {
		return c.Redirect(redirectTo, fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{
		"message": "Email confirmed",
		"user":    user,
	})
}

// ResetRequest asks for a password-reset mail; like login it accepts either
// identifier form.
type ResetRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	RedirectTo string `json:"redirect_to" validate:"omitempty,url"`
}

// HandleResetRequest resolves the identifier and publishes the reset mail.
func (h *AuthHandler) HandleResetRequest(c *fiber.Ctx) error {
	var req ResetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := h.authService.RequestPasswordReset(req.Identifier, req.RedirectTo); err != nil {
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message": "Password reset request failed",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Check your email for the reset link",
	})
}

// ResetConfirm carries the emailed token plus the new password.
type ResetConfirm struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// HandleResetConfirm consumes a reset token and sets the new password.
func (h *AuthHandler) HandleResetConfirm(c *fiber.Ctx) error {
	var req ResetConfirm
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := h.authService.ResetPassword(req.Token, req.Password); err != nil {
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message": "Password reset failed",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Password updated, you can sign in now"})
}

// UpdatePasswordRequest changes a logged-in user's password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// HandleUpdatePassword changes the password of the authenticated user.
func (h *AuthHandler) HandleUpdatePassword(c *fiber.Ctx) error {
	var req UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	userID, _ := c.Locals("user_id").(string)
	if err := h.authService.UpdatePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message": "Password update failed",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

// HandleGoogleRedirect starts the OAuth flow: a random state token goes into
// a cookie and into the provider URL.
func (h *AuthHandler) HandleGoogleRedirect(c *fiber.Ctx) error {
	if h.oauthService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Google sign-in is not configured",
		})
	}

	state := uuid.New().String()
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return c.Redirect(h.oauthService.AuthCodeURL(state), fiber.StatusSeeOther)
}

// HandleOAuthCallback finishes the OAuth flow: state check, code exchange,
// session issuance.
func (h *AuthHandler) HandleOAuthCallback(c *fiber.Ctx) error {
	if h.oauthService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Google sign-in is not configured",
		})
	}

	if state := c.Query("state"); state == "" || state != c.Cookies(oauthStateCookie) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid state parameter",
		})
	}

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Authorization failed",
			"error":   c.Query("error_description"),
		})
	}

	token, user, err := h.oauthService.HandleCallback(c.Context(), code)
	if err != nil {
		log.Printf("OAuth callback failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Google sign-in failed",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// bearerFrom reads the bearer token without failing the request, for routes
// where "no user" is a valid answer.
func bearerFrom(c *fiber.Ctx) string {
	const prefix = "Bearer "
	header := c.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
