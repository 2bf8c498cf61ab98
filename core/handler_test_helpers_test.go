package core

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

// decodeResponse decodes a JsonWithData body, leaving Data as raw JSON.
func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) (JsonBasic, json.RawMessage) {
	t.Helper()
	var body struct {
		JsonBasic
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body.JsonBasic, body.Data
}

// codeOf returns the code field of a precomputed response.
func codeOf(t *testing.T, resp jsonResponse) string {
	t.Helper()
	var basic JsonBasic
	if err := json.Unmarshal(resp.body, &basic); err != nil {
		t.Fatalf("invalid precomputed body: %v", err)
	}
	return basic.Code
}
