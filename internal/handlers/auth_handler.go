package handlers

import (
	"errors"
	"fmt"
	"strings"

	"snapshare/internal/middleware"
	"snapshare/internal/models"
	"snapshare/internal/services"
	"snapshare/internal/templates"
	"snapshare/internal/validator"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var signupRoles = []models.Role{models.RoleConsumer, models.RoleCreator}

// AuthHandler handles HTTP requests for accounts and sessions.
type AuthHandler struct {
	authService   *services.AuthService
	validate      *validator.Validator
	logger        *zap.Logger
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. Session cookies carry the Secure
// flag when secureCookies is set.
func NewAuthHandler(authService *services.AuthService, secureCookies bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		validate:      validator.New(),
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers the account pages.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/signup", h.HandleSignupForm)
	router.Post("/signup", h.HandleSignup)
	router.Get("/login", h.HandleLoginForm)
	router.Post("/login", h.HandleLogin)
	router.Get("/logout", h.HandleLogout)
	router.Post("/logout", h.HandleLogout)
	router.Get("/profile", middleware.LoginRequired(), h.HandleProfile)
}

// RegisterAPIRoutes registers the JSON authentication routes.
func (h *AuthHandler) RegisterAPIRoutes(api fiber.Router) {
	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", h.HandleAPISignup)
	authRoutes.Post("/login", h.HandleAPILogin)
	authRoutes.Post("/logout", h.HandleAPILogout)

	api.Get("/users/me", middleware.RequireAPIAuth(), h.HandleCurrentUser)
}

func (h *AuthHandler) startSession(c *fiber.Ctx, token string) {
	middleware.SetSessionCookie(c, token, int(h.authService.TokenTTL().Seconds()), h.secureCookies)
}

// HandleSignupForm shows the registration form.
func (h *AuthHandler) HandleSignupForm(c *fiber.Ctx) error {
	return h.renderSignup(c, services.SignupInput{Role: models.RoleConsumer}, map[string]string{}, nil)
}

func (h *AuthHandler) renderSignup(c *fiber.Ctx, form services.SignupInput, errs map[string]string, flash *templates.Flash) error {
	form.Password, form.PasswordConfirm = "", ""
	form.ProfilePicture = nil
	data := fiber.Map{
		"PageTitle": "Sign up",
		"Form":      form,
		"Errors":    errs,
		"Roles":     signupRoles,
	}
	if flash != nil {
		data["Flash"] = flash
	}
	return render(c, "users/signup", data)
}

// HandleSignup creates the account, signs the user in and goes home.
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var in services.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}
	picture, closePicture, err := formUpload(c, "profile_picture")
	if err != nil {
		return err
	}
	defer closePicture()
	in.ProfilePicture = picture

	_, token, err := h.authService.Signup(c.UserContext(), in)
	if err != nil {
		if errs, ok := fieldErrors(err); ok {
			return h.renderSignup(c, in, errs, flashOf(flashError, "Please correct the errors below."))
		}
		return err
	}

	h.startSession(c, token)
	setFlash(c, flashSuccess, "Account created successfully!")
	return c.Redirect("/", fiber.StatusFound)
}

// HandleLoginForm shows the login form.
func (h *AuthHandler) HandleLoginForm(c *fiber.Ctx) error {
	return render(c, "users/login", fiber.Map{
		"PageTitle": "Log in",
		"Next":      safeNext(c.Query("next")),
		"Username":  "",
	})
}

// HandleLogin opens a session and redirects to ?next= or home.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := safeNext(c.Query("next", c.FormValue("next")))

	token, user, err := h.authService.Authenticate(c.UserContext(), username, c.FormValue("password"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return render(c, "users/login", fiber.Map{
				"PageTitle": "Log in",
				"Next":      next,
				"Username":  username,
				"Flash":     flashOf(flashError, "Invalid username or password"),
			})
		}
		return err
	}

	h.logger.Debug("browser session opened", zap.String("username", user.Username))
	h.startSession(c, token)
	setFlash(c, flashSuccess, fmt.Sprintf("Welcome back, %s!", user.Username))
	if next == "" {
		next = "/"
	}
	return c.Redirect(next, fiber.StatusFound)
}

// HandleLogout revokes the session and returns to the login page.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.TokenFromRequest(c)); err != nil {
		return err
	}
	middleware.ClearSessionCookie(c)
	setFlash(c, flashSuccess, "You have been logged out successfully.")
	return c.Redirect("/login", fiber.StatusFound)
}

// HandleProfile shows the signed-in user's profile.
func (h *AuthHandler) HandleProfile(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	profile, err := h.authService.CurrentUser(c.UserContext(), identity.UserID)
	if err != nil {
		return err
	}
	return render(c, "users/profile", fiber.Map{
		"PageTitle": profile.Username,
		"Profile":   profile,
	})
}

// HandleAPISignup registers a user from a JSON or multipart body and returns
// a session token.
func (h *AuthHandler) HandleAPISignup(c *fiber.Ctx) error {
	var in services.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	picture, closePicture, err := formUpload(c, "profile_picture")
	if err != nil {
		return err
	}
	defer closePicture()
	in.ProfilePicture = picture

	user, token, err := h.authService.Signup(c.UserContext(), in)
	if err != nil {
		return err
	}
	profile, err := h.authService.CurrentUser(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  profile,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// HandleAPILogin handles user login and issues a session token.
func (h *AuthHandler) HandleAPILogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return err
	}

	token, _, err := h.authService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token})
}

// HandleAPILogout revokes the presented token. Unknown tokens are accepted.
func (h *AuthHandler) HandleAPILogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.TokenFromRequest(c)); err != nil {
		return err
	}
	if c.Cookies(middleware.SessionCookie) != "" {
		middleware.ClearSessionCookie(c)
	}
	return c.JSON(fiber.Map{"message": "Logged out."})
}

// HandleCurrentUser returns the signed-in user's profile.
func (h *AuthHandler) HandleCurrentUser(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	profile, err := h.authService.CurrentUser(c.UserContext(), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// safeNext keeps only same-site absolute paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
