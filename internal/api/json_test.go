package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/oseayemenre/bookshelf/internal/apperrors"
	"github.com/oseayemenre/bookshelf/internal/config"
	"github.com/oseayemenre/bookshelf/internal/models"
)

func TestRespondWithSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	data := struct {
		Name string
	}{
		Name: "fake_data",
	}

	respondWithSuccess(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, w.Code)
	}

	if header := w.Header().Get("Content-Type"); header != "application/json" {
		t.Fatalf("expected application/json, got %s", header)
	}

	var got struct {
		Name string
	}

	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("error unmarshalling response: %v", err)
	}

	if !reflect.DeepEqual(got, data) {
		t.Fatalf("expected %+v, got %+v", data, got)
	}
}

func TestDecodeJson(t *testing.T) {
	expect := struct {
		Name string
	}{
		Name: "fake_data",
	}

	body, err := json.Marshal(&expect)

	if err != nil {
		t.Fatalf("error marshalling body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBuffer(body))

	got := struct{ Name string }{}

	if err := decodeJson(httptest.NewRecorder(), req, &got); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(expect, got) {
		t.Fatalf("expected %+v, got %+v", expect, got)
	}
}

func TestDecodeJsonRejectsOversizedBodies(t *testing.T) {
	body := `{"Name": "` + strings.Repeat("a", maxJsonBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	got := struct{ Name string }{}
	err := decodeJson(httptest.NewRecorder(), req, &got)

	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRespondWithAppError(t *testing.T) {
	tests := []struct {
		name            string
		env             string
		err             error
		expectedCode    int
		expectedError   string
		expectedMessage string
	}{
		{
			name:            "not found",
			env:             "prod",
			err:             apperrors.NotFound("Book not found"),
			expectedCode:    http.StatusNotFound,
			expectedError:   "Not Found",
			expectedMessage: "Book not found",
		},
		{
			name:            "wrapped conflict",
			env:             "prod",
			err:             fmt.Errorf("creating user: %w", apperrors.Conflict("email taken")),
			expectedCode:    http.StatusConflict,
			expectedError:   "Conflict",
			expectedMessage: "email taken",
		},
		{
			name:            "internal error is hidden outside dev",
			env:             "prod",
			err:             errors.New("pq: relation books does not exist"),
			expectedCode:    http.StatusInternalServerError,
			expectedError:   "Internal Server Error",
			expectedMessage: "Something went wrong",
		},
		{
			name:            "internal error is shown in dev",
			env:             "dev",
			err:             errors.New("pq: relation books does not exist"),
			expectedCode:    http.StatusInternalServerError,
			expectedError:   "Internal Server Error",
			expectedMessage: "pq: relation books does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Api{logger: &testLogger{}, config: &config.Config{Env: tt.env}}
			w := httptest.NewRecorder()

			a.respondWithAppError(w, tt.err, "test")

			if w.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d", tt.expectedCode, w.Code)
			}

			var got models.ErrorResponse

			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("error unmarshalling response: %v", err)
			}

			expected := models.ErrorResponse{Error: tt.expectedError, Message: tt.expectedMessage}

			if got != expected {
				t.Fatalf("expected %+v, got %+v", expected, got)
			}
		})
	}
}
