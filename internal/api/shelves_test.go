package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/oseayemenre/bookshelf/internal/models"
	"github.com/oseayemenre/bookshelf/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleListShelves(t *testing.T) {
	a := newTestApi(t, testApiOptions{})

	rr := serve(a, http.MethodGet, "/api/v1/shelves", sessionToken(t, uuid.New(), models.RoleUser), nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"shelves": []}`, rr.Body.String())
}

func TestHandleCreateShelf(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedCode int
		expectedName string
	}{
		{name: "should return 400 if name is missing", body: `{}`, expectedCode: http.StatusBadRequest},
		{name: "should return 400 if name is blank", body: `{"name": "   "}`, expectedCode: http.StatusBadRequest},
		{name: "should return 400 if body is not json", body: `name=x`, expectedCode: http.StatusBadRequest},
		{name: "should return 201 with a trimmed name", body: `{"name": "  Favourites "}`, expectedCode: http.StatusCreated, expectedName: "Favourites"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApi(t, testApiOptions{})

			rr := serve(a, http.MethodPost, "/api/v1/shelves", sessionToken(t, uuid.New(), models.RoleUser), tt.body)

			require.Equal(t, tt.expectedCode, rr.Code, rr.Body.String())

			if tt.expectedName != "" {
				var shelf models.Shelf
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &shelf))
				assert.Equal(t, tt.expectedName, shelf.Name)
				assert.False(t, shelf.IsDefault)
			}
		})
	}
}

func TestDefaultShelvesAreProtected(t *testing.T) {
	s := &testStore{
		renameShelfFunc: func(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID, name string) (*models.Shelf, error) {
			return nil, store.ErrShelfNotEditable
		},
		deleteShelfFunc: func(ctx context.Context, userId uuid.UUID, shelfId uuid.UUID) error {
			return store.ErrShelfNotDeletable
		},
	}

	a := newTestApi(t, testApiOptions{store: s})
	token := sessionToken(t, uuid.New(), models.RoleUser)
	target := "/api/v1/shelves/" + uuid.NewString()

	rr := serve(a, http.MethodPut, target, token, `{"name": "Renamed"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, store.ErrShelfNotEditable.Message, decodeError(t, rr).Message)

	rr = serve(a, http.MethodDelete, target, token, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, store.ErrShelfNotDeletable.Message, decodeError(t, rr).Message)
}

func TestHandleShelfCrud(t *testing.T) {
	shelfId := uuid.New()

	a := newTestApi(t, testApiOptions{})
	token := sessionToken(t, uuid.New(), models.RoleUser)
	target := "/api/v1/shelves/" + shelfId.String()

	rr := serve(a, http.MethodGet, target, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(a, http.MethodPut, target, token, `{"name": "Holiday"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var shelf models.Shelf
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &shelf))
	assert.Equal(t, "Holiday", shelf.Name)
	assert.Equal(t, shelfId, shelf.Id)

	rr = serve(a, http.MethodDelete, target, token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(a, http.MethodGet, "/api/v1/shelves/not-a-uuid", token, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleShelfMembership(t *testing.T) {
	userId := uuid.New()
	shelfId := uuid.New()
	bookId := uuid.New()

	tests := []struct {
		name         string
		method       string
		bookId       string
		storeErr     error
		expectedCode int
	}{
		{name: "should return 201 when adding", method: http.MethodPost, bookId: bookId.String(), expectedCode: http.StatusCreated},
		{name: "should return 204 when removing", method: http.MethodDelete, bookId: bookId.String(), expectedCode: http.StatusNoContent},
		{name: "should return 404 for a foreign shelf", method: http.MethodPost, bookId: bookId.String(), storeErr: store.ErrShelfNotFound, expectedCode: http.StatusNotFound},
		{name: "should return 404 for a foreign book", method: http.MethodDelete, bookId: bookId.String(), storeErr: store.ErrBookNotFound, expectedCode: http.StatusNotFound},
		{name: "should return 400 for a malformed book id", method: http.MethodPost, bookId: "abc", expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calledWith [3]uuid.UUID

			record := func(u, s, b uuid.UUID) error {
				calledWith = [3]uuid.UUID{u, s, b}
				return tt.storeErr
			}

			a := newTestApi(t, testApiOptions{store: &testStore{
				addBookToShelfFunc: func(ctx context.Context, u, s, b uuid.UUID) error { return record(u, s, b) },
				removeBookFromShelfFunc: func(ctx context.Context, u, s, b uuid.UUID) error {
					return record(u, s, b)
				},
			}})

			target := "/api/v1/shelves/" + shelfId.String() + "/books/" + tt.bookId
			rr := serve(a, tt.method, target, sessionToken(t, userId, models.RoleUser), nil)

			require.Equal(t, tt.expectedCode, rr.Code, rr.Body.String())

			if tt.expectedCode < 300 {
				assert.Equal(t, [3]uuid.UUID{userId, shelfId, bookId}, calledWith)
			}
		})
	}
}
