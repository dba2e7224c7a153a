package api

import (
	"net/http"
	"strings"

	"github.com/oseayemenre/bookshelf/internal/models"
)

// HandleListShelves godoc
//
//	@Summary	List shelves
//	@Tags		shelves
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	models.HandleShelvesResponse
//	@Failure	401	{object}	models.ErrorResponse
//	@Router		/shelves [get]
func (a *Api) HandleListShelves(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	shelves, err := a.store.ListShelves(r.Context(), user.Id)

	if err != nil {
		a.respondWithAppError(w, err, "HandleListShelves")
		return
	}

	if shelves == nil {
		shelves = []models.Shelf{}
	}

	respondWithSuccess(w, http.StatusOK, models.HandleShelvesResponse{Shelves: shelves})
}

func (a *Api) bindShelf(w http.ResponseWriter, r *http.Request) (string, error) {
	var params models.HandleShelfRequest

	if err := decodeJson(w, r, &params); err != nil {
		return "", err
	}

	params.Name = strings.TrimSpace(params.Name)

	if err := a.validator.Validate(&params); err != nil {
		return "", err
	}

	return params.Name, nil
}

// HandleCreateShelf godoc
//
//	@Summary	Create shelf
//	@Tags		shelves
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		models.HandleShelfRequest	true	"Shelf"
//	@Success	201		{object}	models.Shelf
//	@Failure	400		{object}	models.ErrorResponse
//	@Router		/shelves [post]
func (a *Api) HandleCreateShelf(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	name, err := a.bindShelf(w, r)

	if err != nil {
		a.respondWithAppError(w, err, "HandleCreateShelf")
		return
	}

	shelf, err := a.store.CreateShelf(r.Context(), user.Id, name)

	if err != nil {
		a.respondWithAppError(w, err, "HandleCreateShelf")
		return
	}

	respondWithSuccess(w, http.StatusCreated, shelf)
}

// HandleGetShelf godoc
//
//	@Summary		Get shelf
//	@Description	Books on the shelf are listed through GET /books?shelfId=
//	@Tags			shelves
//	@Produce		json
//	@Security		BearerAuth
//	@Param			shelfId	path		string	true	"Shelf id"
//	@Success		200		{object}	models.Shelf
//	@Failure		404		{object}	models.ErrorResponse
//	@Router			/shelves/{shelfId} [get]
func (a *Api) HandleGetShelf(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	shelfId, err := pathUUID(r, "shelfId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleGetShelf")
		return
	}

	shelf, err := a.store.GetShelf(r.Context(), user.Id, shelfId)

	if err != nil {
		a.respondWithAppError(w, err, "HandleGetShelf")
		return
	}

	respondWithSuccess(w, http.StatusOK, shelf)
}

// HandleRenameShelf godoc
//
//	@Summary	Rename shelf
//	@Tags		shelves
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		shelfId	path		string						true	"Shelf id"
//	@Param		body	body		models.HandleShelfRequest	true	"Shelf"
//	@Success	200		{object}	models.Shelf
//	@Failure	400		{object}	models.ErrorResponse
//	@Failure	404		{object}	models.ErrorResponse
//	@Router		/shelves/{shelfId} [put]
func (a *Api) HandleRenameShelf(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	shelfId, err := pathUUID(r, "shelfId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleRenameShelf")
		return
	}

	name, err := a.bindShelf(w, r)

	if err != nil {
		a.respondWithAppError(w, err, "HandleRenameShelf")
		return
	}

	shelf, err := a.store.RenameShelf(r.Context(), user.Id, shelfId, name)

	if err != nil {
		a.respondWithAppError(w, err, "HandleRenameShelf")
		return
	}

	respondWithSuccess(w, http.StatusOK, shelf)
}

// HandleDeleteShelf godoc
//
//	@Summary		Delete shelf
//	@Description	Removes a custom shelf. Its books are kept.
//	@Tags			shelves
//	@Security		BearerAuth
//	@Param			shelfId	path	string	true	"Shelf id"
//	@Success		204
//	@Failure		404	{object}	models.ErrorResponse
//	@Router			/shelves/{shelfId} [delete]
func (a *Api) HandleDeleteShelf(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	shelfId, err := pathUUID(r, "shelfId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleDeleteShelf")
		return
	}

	if err := a.store.DeleteShelf(r.Context(), user.Id, shelfId); err != nil {
		a.respondWithAppError(w, err, "HandleDeleteShelf")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAddBookToShelf godoc
//
//	@Summary	Add book to shelf
//	@Tags		shelves
//	@Produce	json
//	@Security	BearerAuth
//	@Param		shelfId	path		string	true	"Shelf id"
//	@Param		bookId	path		string	true	"Book id"
//	@Success	201		{object}	models.MessageResponse
//	@Failure	404		{object}	models.ErrorResponse
//	@Router		/shelves/{shelfId}/books/{bookId} [post]
func (a *Api) HandleAddBookToShelf(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	shelfId, err := pathUUID(r, "shelfId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleAddBookToShelf")
		return
	}

	bookId, err := pathUUID(r, "bookId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleAddBookToShelf")
		return
	}

	if err := a.store.AddBookToShelf(r.Context(), user.Id, shelfId, bookId); err != nil {
		a.respondWithAppError(w, err, "HandleAddBookToShelf")
		return
	}

	respondWithSuccess(w, http.StatusCreated, models.MessageResponse{Message: "Book added to shelf"})
}

// HandleRemoveBookFromShelf godoc
//
//	@Summary	Remove book from shelf
//	@Tags		shelves
//	@Security	BearerAuth
//	@Param		shelfId	path	string	true	"Shelf id"
//	@Param		bookId	path	string	true	"Book id"
//	@Success	204
//	@Failure	404	{object}	models.ErrorResponse
//	@Router		/shelves/{shelfId}/books/{bookId} [delete]
func (a *Api) HandleRemoveBookFromShelf(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	shelfId, err := pathUUID(r, "shelfId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleRemoveBookFromShelf")
		return
	}

	bookId, err := pathUUID(r, "bookId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleRemoveBookFromShelf")
		return
	}

	if err := a.store.RemoveBookFromShelf(r.Context(), user.Id, shelfId, bookId); err != nil {
		a.respondWithAppError(w, err, "HandleRemoveBookFromShelf")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
