package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prankvz/sentinel/db"
)

// Codes of dynamic, non precomputed ok responses.
const (
	CodeOkVisitLogged    = "ok_visit_logged"
	CodeOkVisitsList     = "ok_visits_list"
	CodeOkBlockedIpsList = "ok_blocked_ips_list"
	CodeOkHealth         = "ok_health"
	CodeOkEndpointsList  = "ok_endpoints_list"
	CodeOkAuthentication = "ok_authentication"
)

type jsonResponse struct {
	status int
	body   []byte
}

// JsonBasic contains the fields every response carries.
type JsonBasic struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JsonWithData is a JsonBasic with a payload.
type JsonWithData struct {
	JsonBasic
	Data any `json:"data,omitempty"`
}

func NewJsonWithData(status int, code, message string, data any) JsonWithData {
	return JsonWithData{
		JsonBasic: JsonBasic{Status: status, Code: code, Message: message},
		Data:      data,
	}
}

func writeJsonWithData(w http.ResponseWriter, resp JsonWithData) {
	setHeaders(w, HeadersJson)
	w.WriteHeader(resp.Status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJsonOk writes a precomputed ok response.
func WriteJsonOk(w http.ResponseWriter, resp jsonResponse) {
	setHeaders(w, HeadersJson)
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}

// WriteJsonError writes a precomputed error response.
func WriteJsonError(w http.ResponseWriter, resp jsonResponse) {
	setHeaders(w, HeadersJson)
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}

// errorResponse maps store and facade errors to their precomputed response.
func errorResponse(err error) jsonResponse {
	switch {
	case errors.Is(err, db.ErrInvalidInput):
		return errorInvalidRequest
	case errors.Is(err, ErrForbidden):
		return errorForbidden
	case errors.Is(err, db.ErrStorageUnavailable):
		return errorServiceUnavailable
	default:
		return errorInternal
	}
}
