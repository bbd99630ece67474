package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	internal_errors "github.com/jisap/threads-clone/internal/errors"
	"github.com/jisap/threads-clone/internal/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// WriteErrorAndStatusCode writes the message of a status-coded error as is.
// Anything else is a 500 whose details stay in the log.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	status := internal_errors.StatusCode(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error("internal error", "error", err)
		http.Error(w, "Internal error", status)
		return
	}
	http.Error(w, ClientMessage(err), status)
}

// ClientMessage is the part of err that is safe to show to a visitor.
func ClientMessage(err error) string {
	if internal_errors.StatusCode(err) == http.StatusInternalServerError {
		return "Something went wrong, please try again later"
	}
	var e *internal_errors.ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

func DecodeValidate(r io.Reader, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("invalid json body", "error", err)
		return internal_errors.BadRequest("Body is invalid json")
	}
	return Validate(body)
}

// Validate checks the validate tags of body.
func Validate(body any) error {
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("validation failed", "error", err)
		return internal_errors.BadRequest("Required fields missing")
	}
	return nil
}
