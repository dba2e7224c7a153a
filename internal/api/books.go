package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oseayemenre/bookshelf/internal/apperrors"
	"github.com/oseayemenre/bookshelf/internal/models"
)

const (
	maxCoverBytes       = 3 << 20
	maxCoverUploadBytes = 8 << 20
)

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))

	if err != nil {
		return uuid.Nil, apperrors.Validationf("invalid %s", param)
	}

	return id, nil
}

// queryInt parses an optional integer query parameter. Unparsable values are
// treated as absent.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))

	if err != nil {
		return 0
	}

	return n
}

func bookFilterFromQuery(r *http.Request, userId uuid.UUID) (*models.BookFilter, error) {
	q := r.URL.Query()

	filter := &models.BookFilter{
		UserId: userId,
		Search: strings.TrimSpace(q.Get("search")),
		Status: strings.TrimSpace(q.Get("status")),
		Tag:    strings.TrimSpace(q.Get("tag")),
		Sort:   strings.TrimSpace(q.Get("sort")),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}

	if filter.Status != "" && !models.IsValidStatus(filter.Status) {
		return nil, apperrors.Validationf("status must be one of %s", strings.Join(models.Statuses, ", "))
	}

	if filter.Sort == "" {
		filter.Sort = models.SortRecentlyAdded
	}

	if !models.IsValidSort(filter.Sort) {
		return nil, apperrors.Validation("sort must be one of recently_added, title, author, rating, progress")
	}

	if shelfId := strings.TrimSpace(q.Get("shelfId")); shelfId != "" {
		id, err := uuid.Parse(shelfId)

		if err != nil {
			return nil, apperrors.Validation("invalid shelfId")
		}

		filter.ShelfId = &id
	}

	return filter, nil
}

// HandleListBooks godoc
//
//	@Summary		List books
//	@Description	Lists the caller's books with filters, sorting, pagination and per-status counts
//	@Tags			books
//	@Produce		json
//	@Security		BearerAuth
//	@Param			search	query		string	false	"Matches title, authors, tags or category"
//	@Param			status	query		string	false	"to_read, reading, completed or dropped"
//	@Param			tag		query		string	false	"Exact tag"
//	@Param			shelfId	query		string	false	"Shelf id"
//	@Param			sort	query		string	false	"recently_added, title, author, rating or progress"
//	@Param			page	query		int		false	"Page, from 1"
//	@Param			limit	query		int		false	"Page size, 1 to 100"
//	@Success		200		{object}	models.BookPage
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		401		{object}	models.ErrorResponse
//	@Failure		500		{object}	models.ErrorResponse
//	@Router			/books [get]
func (a *Api) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	filter, err := bookFilterFromQuery(r, user.Id)

	if err != nil {
		a.respondWithAppError(w, err, "HandleListBooks")
		return
	}

	page, err := a.store.ListBooks(r.Context(), filter)

	if err != nil {
		a.respondWithAppError(w, err, "HandleListBooks")
		return
	}

	respondWithSuccess(w, http.StatusOK, page)
}

// HandleCreateBook godoc
//
//	@Summary		Create book
//	@Description	Adds a book and places it on the default shelf for its status
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		models.HandleBookRequest	true	"Book"
//	@Success		201		{object}	models.Book
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		401		{object}	models.ErrorResponse
//	@Failure		500		{object}	models.ErrorResponse
//	@Router			/books [post]
func (a *Api) HandleCreateBook(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var params models.HandleBookRequest

	if err := a.bindJson(w, r, &params); err != nil {
		a.respondWithAppError(w, err, "HandleCreateBook")
		return
	}

	book, err := a.store.CreateBook(r.Context(), params.Book(user.Id))

	if err != nil {
		a.respondWithAppError(w, err, "HandleCreateBook")
		return
	}

	a.logger.Info("book created", "user_id", user.Id, "book_id", book.Id)
	respondWithSuccess(w, http.StatusCreated, book)
}

// HandleGetBook godoc
//
//	@Summary	Get book
//	@Tags		books
//	@Produce	json
//	@Security	BearerAuth
//	@Param		bookId	path		string	true	"Book id"
//	@Success	200		{object}	models.Book
//	@Failure	400		{object}	models.ErrorResponse
//	@Failure	404		{object}	models.ErrorResponse
//	@Router		/books/{bookId} [get]
func (a *Api) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	bookId, err := pathUUID(r, "bookId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleGetBook")
		return
	}

	book, err := a.store.GetBook(r.Context(), user.Id, bookId)

	if err != nil {
		a.respondWithAppError(w, err, "HandleGetBook")
		return
	}

	respondWithSuccess(w, http.StatusOK, book)
}

// HandleUpdateBook godoc
//
//	@Summary		Replace book
//	@Description	Replaces every field of a book. Shelf membership is left as is.
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			bookId	path		string						true	"Book id"
//	@Param			body	body		models.HandleBookRequest	true	"Book"
//	@Success		200		{object}	models.Book
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		404		{object}	models.ErrorResponse
//	@Router			/books/{bookId} [put]
func (a *Api) HandleUpdateBook(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	bookId, err := pathUUID(r, "bookId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleUpdateBook")
		return
	}

	var params models.HandleBookRequest

	if err := a.bindJson(w, r, &params); err != nil {
		a.respondWithAppError(w, err, "HandleUpdateBook")
		return
	}

	book := params.Book(user.Id)
	book.Id = bookId

	updated, err := a.store.UpdateBook(r.Context(), book)

	if err != nil {
		a.respondWithAppError(w, err, "HandleUpdateBook")
		return
	}

	respondWithSuccess(w, http.StatusOK, updated)
}

// HandleDeleteBook godoc
//
//	@Summary	Delete book
//	@Tags		books
//	@Security	BearerAuth
//	@Param		bookId	path	string	true	"Book id"
//	@Success	204
//	@Failure	400	{object}	models.ErrorResponse
//	@Failure	404	{object}	models.ErrorResponse
//	@Router		/books/{bookId} [delete]
func (a *Api) HandleDeleteBook(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	bookId, err := pathUUID(r, "bookId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleDeleteBook")
		return
	}

	if err := a.store.DeleteBook(r.Context(), user.Id, bookId); err != nil {
		a.respondWithAppError(w, err, "HandleDeleteBook")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleGetBookShelves godoc
//
//	@Summary	Shelves holding a book
//	@Tags		books
//	@Produce	json
//	@Security	BearerAuth
//	@Param		bookId	path		string	true	"Book id"
//	@Success	200		{object}	models.HandleBookShelvesResponse
//	@Failure	404		{object}	models.ErrorResponse
//	@Router		/books/{bookId}/shelves [get]
func (a *Api) HandleGetBookShelves(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	bookId, err := pathUUID(r, "bookId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleGetBookShelves")
		return
	}

	ids, err := a.store.GetBookShelfIds(r.Context(), user.Id, bookId)

	if err != nil {
		a.respondWithAppError(w, err, "HandleGetBookShelves")
		return
	}

	if ids == nil {
		ids = []uuid.UUID{}
	}

	respondWithSuccess(w, http.StatusOK, models.HandleBookShelvesResponse{ShelfIds: ids})
}

// HandleUploadCover godoc
//
//	@Summary	Upload book cover
//	@Tags		books
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	BearerAuth
//	@Param		bookId	path		string	true	"Book id"
//	@Param		cover	formData	file	true	"Cover image (max 3MB)"
//	@Success	200		{object}	models.Book
//	@Failure	400		{object}	models.ErrorResponse
//	@Failure	404		{object}	models.ErrorResponse
//	@Failure	413		{object}	models.ErrorResponse
//	@Router		/books/{bookId}/cover [post]
func (a *Api) HandleUploadCover(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	bookId, err := pathUUID(r, "bookId")

	if err != nil {
		a.respondWithAppError(w, err, "HandleUploadCover")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverUploadBytes)

	if err := r.ParseMultipartForm(maxCoverBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			a.logger.Warn("book cover too large", "service", "HandleUploadCover")
			respondWithError(w, http.StatusRequestEntityTooLarge, "Book cover too large")
			return
		}
		a.respondWithAppError(w, apperrors.Validationf("error parsing form: %v", err), "HandleUploadCover")
		return
	}

	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("cover")

	if err != nil {
		a.respondWithAppError(w, apperrors.Validation("cover is required"), "HandleUploadCover")
		return
	}

	defer file.Close()

	fileData, err := io.ReadAll(file)

	if err != nil {
		a.respondWithAppError(w, fmt.Errorf("error reading bytes: %w", err), "HandleUploadCover")
		return
	}

	if len(fileData) > maxCoverBytes {
		a.logger.Warn("book cover too large", "service", "HandleUploadCover")
		respondWithError(w, http.StatusRequestEntityTooLarge, "Book cover too large")
		return
	}

	contentType := http.DetectContentType(fileData)

	if !strings.HasPrefix(contentType, "image/") {
		a.respondWithAppError(w, apperrors.Validation("invalid file type"), "HandleUploadCover")
		return
	}

	if _, err := a.store.GetBook(r.Context(), user.Id, bookId); err != nil {
		a.respondWithAppError(w, err, "HandleUploadCover")
		return
	}

	key := fmt.Sprintf("covers/%s/%s", user.Id, bookId)

	url, err := a.objectStore.UploadFile(r.Context(), bytes.NewReader(fileData), key, contentType)

	if err != nil {
		a.respondWithAppError(w, err, "HandleUploadCover")
		return
	}

	book, err := a.store.UpdateBookCover(r.Context(), user.Id, bookId, url)

	if err != nil {
		a.respondWithAppError(w, err, "HandleUploadCover")
		return
	}

	respondWithSuccess(w, http.StatusOK, book)
}
