package api

import (
	"net/http"
	"strings"

	"github.com/oseayemenre/bookshelf/internal/apperrors"
	"github.com/oseayemenre/bookshelf/internal/bcrypt"
	"github.com/oseayemenre/bookshelf/internal/models"
)

// HandleListUsers godoc
//
//	@Summary	List users
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	models.HandleUsersResponse
//	@Failure	401	{object}	models.ErrorResponse
//	@Failure	403	{object}	models.ErrorResponse
//	@Router		/users/list [get]
func (a *Api) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.ListUsers(r.Context())

	if err != nil {
		a.respondWithAppError(w, err, "HandleListUsers")
		return
	}

	if users == nil {
		users = []models.User{}
	}

	respondWithSuccess(w, http.StatusOK, models.HandleUsersResponse{Users: users})
}

// HandleDeleteUser godoc
//
//	@Summary	Delete user
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Param		userId	path		string	true	"User id"
//	@Success	200		{object}	models.MessageResponse
//	@Failure	400		{object}	models.ErrorResponse
//	@Failure	403		{object}	models.ErrorResponse
//	@Failure	404		{object}	models.ErrorResponse
//	@Router		/users/{userId} [delete]
func (a *Api) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	admin := userFromContext(r.Context())

	userId, err := pathUUID(r, "userId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleDeleteUser")
		return
	}

	if userId == admin.Id {
		a.respondWithAppError(w, apperrors.Validation("You cannot delete your own account"), "HandleDeleteUser")
		return
	}

	if err := a.store.DeleteUser(r.Context(), userId); err != nil {
		a.respondWithAppError(w, err, "HandleDeleteUser")
		return
	}

	a.logger.Info("user deleted", "admin_id", admin.Id, "user_id", userId)
	respondWithSuccess(w, http.StatusOK, models.MessageResponse{Message: "User deleted"})
}

// HandleGetProfile godoc
//
//	@Summary	Get profile
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	models.HandleUserResponse
//	@Failure	404	{object}	models.ErrorResponse
//	@Router		/users/profile [get]
func (a *Api) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	caller := userFromContext(r.Context())

	user, err := a.store.GetUserById(r.Context(), caller.Id)

	if err != nil {
		a.respondWithAppError(w, err, "HandleGetProfile")
		return
	}

	respondWithSuccess(w, http.StatusOK, models.HandleUserResponse{User: user})
}

// HandleUpdateProfile godoc
//
//	@Summary		Update profile
//	@Description	Changes the caller's name, password, or both
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		models.HandleUpdateProfileRequest	true	"Fields to change"
//	@Success		200		{object}	models.HandleUserResponse
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		404		{object}	models.ErrorResponse
//	@Router			/users/profile [put]
func (a *Api) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller := userFromContext(r.Context())

	var params models.HandleUpdateProfileRequest

	if err := decodeJson(w, r, &params); err != nil {
		a.respondWithAppError(w, err, "HandleUpdateProfile")
		return
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		params.Name = &name
	}

	if err := a.validator.Validate(&params); err != nil {
		a.respondWithAppError(w, err, "HandleUpdateProfile")
		return
	}

	if params.Name != nil && *params.Name == "" {
		a.respondWithAppError(w, apperrors.Validation("name must not be empty"), "HandleUpdateProfile")
		return
	}

	var passwordHash *string

	if params.Password != nil {
		hash, err := bcrypt.HashPassword(*params.Password)

		if err != nil {
			a.respondWithAppError(w, err, "HandleUpdateProfile")
			return
		}

		passwordHash = &hash
	}

	user, err := a.store.UpdateProfile(r.Context(), caller.Id, params.Name, passwordHash)

	if err != nil {
		a.respondWithAppError(w, err, "HandleUpdateProfile")
		return
	}

	respondWithSuccess(w, http.StatusOK, models.HandleUserResponse{User: user})
}
