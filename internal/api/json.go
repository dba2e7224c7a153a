package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oseayemenre/bookshelf/internal/apperrors"
	"github.com/oseayemenre/bookshelf/internal/models"
)

const maxJsonBodyBytes = 1 << 20

func respondWithSuccess(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithSuccess(w, code, models.ErrorResponse{Error: errorCategory(code), Message: message})
}

func errorCategory(code int) string {
	switch code {
	case http.StatusBadRequest:
		return string(apperrors.KindValidation)
	case http.StatusUnauthorized:
		return string(apperrors.KindUnauthorized)
	case http.StatusForbidden:
		return string(apperrors.KindForbidden)
	case http.StatusNotFound:
		return string(apperrors.KindNotFound)
	case http.StatusConflict:
		return string(apperrors.KindConflict)
	case http.StatusTooManyRequests:
		return string(apperrors.KindTooManyRequests)
	case http.StatusInternalServerError:
		return string(apperrors.KindInternal)
	default:
		return http.StatusText(code)
	}
}

// respondWithAppError maps err onto the error envelope. Anything that is not
// an apperrors value is treated as internal and its text is only shown in dev.
func (a *Api) respondWithAppError(w http.ResponseWriter, err error, service string) {
	kind := apperrors.KindOf(err)

	if kind == apperrors.KindInternal {
		a.logger.Error(err.Error(), "service", service)

		message := "Something went wrong"
		if a.config.IsDev() {
			message = err.Error()
		}

		respondWithError(w, http.StatusInternalServerError, message)
		return
	}

	a.logger.Warn(err.Error(), "service", service)
	respondWithError(w, kind.HTTPStatus(), apperrors.MessageOf(err, err.Error()))
}

func decodeJson(w http.ResponseWriter, r *http.Request, params any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJsonBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return apperrors.Validation("request body too large")
		}
		return apperrors.Validationf("invalid request body: %v", err)
	}

	return nil
}

type normalizer interface {
	Normalize()
}

// bindJson decodes and validates a request body in one step. Bodies that
// implement normalizer are normalized before validation.
func (a *Api) bindJson(w http.ResponseWriter, r *http.Request, params any) error {
	if err := decodeJson(w, r, params); err != nil {
		return err
	}

	if n, ok := params.(normalizer); ok {
		n.Normalize()
	}

	return a.validator.Validate(params)
}
