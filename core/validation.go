package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
)

const (
	MimeTypeJSON = "application/json"

	// maxJsonBodySize bounds request bodies of the JSON endpoints.
	maxJsonBodySize = 64 << 10
)

var errInvalidContentType = errors.New("invalid content type")

// Validator checks incoming requests before handlers decode them.
type Validator interface {
	// ContentType checks the request media type against allowedType.
	ContentType(r *http.Request, allowedType string) (jsonResponse, error)
}

type DefaultValidator struct{}

func NewValidator() Validator {
	return &DefaultValidator{}
}

// ContentType answers 415 for a missing or different media type. Parameters
// such as charset are ignored.
func (v *DefaultValidator) ContentType(r *http.Request, allowedType string) (jsonResponse, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return errorInvalidContentType, errInvalidContentType
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != allowedType {
		return errorInvalidContentType, errInvalidContentType
	}
	return jsonResponse{}, nil
}

// decodeJson validates the content type and decodes a size limited JSON body
// into dst. On failure the response to write is returned.
func (a *App) decodeJson(w http.ResponseWriter, r *http.Request, dst any) (jsonResponse, error) {
	if resp, err := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		return resp, err
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJsonBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errorRequestBodyTooLarge, err
		}
		return errorInvalidRequest, fmt.Errorf("decode json: %w", err)
	}
	return jsonResponse{}, nil
}
