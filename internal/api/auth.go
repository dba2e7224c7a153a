package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/oseayemenre/bookshelf/internal/apperrors"
	"github.com/oseayemenre/bookshelf/internal/bcrypt"
	"github.com/oseayemenre/bookshelf/internal/jwt"
	"github.com/oseayemenre/bookshelf/internal/mailer"
	"github.com/oseayemenre/bookshelf/internal/models"
	"github.com/oseayemenre/bookshelf/internal/store"
)

const forgotPasswordMessage = "If an account exists, you will receive reset instructions by email."

var errInvalidCredentials = apperrors.Unauthorized("Invalid email or password")

// dummyHash is compared against when the email is unknown so that login takes
// the same time whether or not the account exists.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := bcrypt.HashPassword("bookshelf-login-timing")
	return hash
})

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Api) issueToken(user *models.User) (string, error) {
	token, err := jwt.CreateJWTToken(user.Id.String(), user.Email, user.Role, a.config.JWTSecret, a.config.JWTExpiresIn)

	if err != nil {
		return "", apperrors.Internal("error signing token", err)
	}

	return token, nil
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Creates an account with three default shelves and returns a session token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.HandleRegisterRequest	true	"Account details"
//	@Success		201		{object}	models.HandleAuthResponse
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		409		{object}	models.ErrorResponse
//	@Failure		429		{object}	models.ErrorResponse
//	@Failure		500		{object}	models.ErrorResponse
//	@Router			/auth/register [post]
func (a *Api) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var params models.HandleRegisterRequest

	if err := decodeJson(w, r, &params); err != nil {
		a.respondWithAppError(w, err, "HandleRegister")
		return
	}

	params.Name = strings.TrimSpace(params.Name)
	params.Email = normalizeEmail(params.Email)

	if err := a.validator.Validate(&params); err != nil {
		a.respondWithAppError(w, err, "HandleRegister")
		return
	}

	hash, err := bcrypt.HashPassword(params.Password)

	if err != nil {
		a.respondWithAppError(w, err, "HandleRegister")
		return
	}

	user, err := a.store.CreateUser(r.Context(), &models.User{
		Name:     params.Name,
		Email:    params.Email,
		Password: hash,
		Role:     models.RoleUser,
	})

	if err != nil {
		a.respondWithAppError(w, err, "HandleRegister")
		return
	}

	token, err := a.issueToken(user)

	if err != nil {
		a.respondWithAppError(w, err, "HandleRegister")
		return
	}

	a.logger.Info("user registered", "user_id", user.Id)
	respondWithSuccess(w, http.StatusCreated, models.HandleAuthResponse{User: user, Token: token})
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Exchanges email and password for a session token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.HandleLoginRequest	true	"Credentials"
//	@Success		200		{object}	models.HandleAuthResponse
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		401		{object}	models.ErrorResponse
//	@Failure		429		{object}	models.ErrorResponse
//	@Router			/auth/login [post]
func (a *Api) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var params models.HandleLoginRequest

	if err := decodeJson(w, r, &params); err != nil {
		a.respondWithAppError(w, err, "HandleLogin")
		return
	}

	params.Email = normalizeEmail(params.Email)

	if err := a.validator.Validate(&params); err != nil {
		a.respondWithAppError(w, err, "HandleLogin")
		return
	}

	user, err := a.store.GetUserByEmail(r.Context(), params.Email)

	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			bcrypt.ComparePassword(params.Password, dummyHash())
			a.respondWithAppError(w, errInvalidCredentials, "HandleLogin")
			return
		}
		a.respondWithAppError(w, err, "HandleLogin")
		return
	}

	if err := bcrypt.ComparePassword(params.Password, user.Password); err != nil {
		a.respondWithAppError(w, errInvalidCredentials, "HandleLogin")
		return
	}

	token, err := a.issueToken(user)

	if err != nil {
		a.respondWithAppError(w, err, "HandleLogin")
		return
	}

	respondWithSuccess(w, http.StatusOK, models.HandleAuthResponse{User: user, Token: token})
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	Sessions are stateless; the client discards its token
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	models.MessageResponse
//	@Router			/auth/logout [post]
func (a *Api) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if user := userFromContext(r.Context()); user != nil {
		a.logger.Info("user logged out", "user_id", user.Id)
	}

	respondWithSuccess(w, http.StatusOK, models.MessageResponse{Message: "Logged out"})
}

// resetLinkBase returns origin when it is an http(s) URL, else the
// configured frontend URL.
func resetLinkBase(origin, frontendURL string) string {
	fallback := strings.TrimRight(frontendURL, "/")
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")

	if origin == "" {
		return fallback
	}

	u, err := url.Parse(origin)

	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fallback
	}

	return origin
}

func resetLink(base, token string) string {
	return base + "/reset-password?token=" + url.QueryEscape(token)
}

// HandleForgotPassword godoc
//
//	@Summary		Request a password reset
//	@Description	Emails a one hour reset link when the account exists. The response is the same either way.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.HandleForgotPasswordRequest	true	"Email and optional link origin"
//	@Success		200		{object}	models.MessageResponse
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		429		{object}	models.ErrorResponse
//	@Router			/auth/forgot-password [post]
func (a *Api) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var params models.HandleForgotPasswordRequest

	if err := decodeJson(w, r, &params); err != nil {
		a.respondWithAppError(w, err, "HandleForgotPassword")
		return
	}

	params.Email = normalizeEmail(params.Email)

	if err := a.validator.Validate(&params); err != nil {
		a.respondWithAppError(w, err, "HandleForgotPassword")
		return
	}

	if err := a.sendResetEmail(r, params.Email, params.Origin); err != nil {
		a.logger.Error(err.Error(), "service", "HandleForgotPassword")
	}

	respondWithSuccess(w, http.StatusOK, models.MessageResponse{Message: forgotPasswordMessage})
}

func (a *Api) sendResetEmail(r *http.Request, email, origin string) error {
	user, err := a.store.GetUserByEmail(r.Context(), email)

	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, expiresAt, err := jwt.CreateResetToken(user.Id.String(), user.Email, a.config.JWTSecret)

	if err != nil {
		return err
	}

	if err := a.store.CreateResetToken(r.Context(), user.Id, token, expiresAt); err != nil {
		return err
	}

	link := resetLink(resetLinkBase(origin, a.config.FrontendURL), token)

	if err := a.mailer.Send(r.Context(), mailer.PasswordResetMessage(user.Email, link)); err != nil {
		return err
	}

	a.logger.Info("password reset requested", "user_id", user.Id)
	return nil
}

// HandleResetPassword godoc
//
//	@Summary		Reset password
//	@Description	Sets a new password using a reset token. Each token works once.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.HandleResetPasswordRequest	true	"Reset token and new password"
//	@Success		200		{object}	models.MessageResponse
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		429		{object}	models.ErrorResponse
//	@Router			/auth/reset-password [post]
func (a *Api) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var params models.HandleResetPasswordRequest

	if err := decodeJson(w, r, &params); err != nil {
		a.respondWithAppError(w, err, "HandleResetPassword")
		return
	}

	params.Token = strings.TrimSpace(params.Token)

	if err := a.validator.Validate(&params); err != nil {
		a.respondWithAppError(w, err, "HandleResetPassword")
		return
	}

	if _, err := jwt.DecodeResetToken(params.Token, a.config.JWTSecret); err != nil {
		a.respondWithAppError(w, store.ErrResetTokenInvalid, "HandleResetPassword")
		return
	}

	hash, err := bcrypt.HashPassword(params.Password)

	if err != nil {
		a.respondWithAppError(w, err, "HandleResetPassword")
		return
	}

	if err := a.store.ConsumeResetToken(r.Context(), params.Token, hash); err != nil {
		a.respondWithAppError(w, err, "HandleResetPassword")
		return
	}

	respondWithSuccess(w, http.StatusOK, models.MessageResponse{Message: "Password reset successful"})
}

// HandleResetRedirect godoc
//
//	@Summary		Reset link redirect
//	@Description	Redirects an emailed link to the frontend reset page
//	@Tags			auth
//	@Param			token	query	string	false	"Reset token"
//	@Success		302
//	@Router			/auth/reset-redirect [get]
func (a *Api) HandleResetRedirect(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimRight(a.config.FrontendURL, "/")
	token := strings.TrimSpace(r.URL.Query().Get("token"))

	target := base
	if token != "" {
		target = resetLink(base, token)
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Tags			auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	models.HandleUserResponse
//	@Failure		401	{object}	models.ErrorResponse
//	@Failure		404	{object}	models.ErrorResponse
//	@Router			/auth/me [get]
func (a *Api) HandleMe(w http.ResponseWriter, r *http.Request) {
	caller := userFromContext(r.Context())

	user, err := a.store.GetUserById(r.Context(), caller.Id)

	if err != nil {
		a.respondWithAppError(w, err, "HandleMe")
		return
	}

	respondWithSuccess(w, http.StatusOK, models.HandleUserResponse{User: user})
}
