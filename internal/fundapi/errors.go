package fundapi

import (
	"encoding/json"
	"fmt"
)

// APIError carries a non-2xx response from the fund-management backend.
// Detail holds the structured error payload when the backend provided one.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Detail     string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Detail != "" {
		return fmt.Sprintf("fund api %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}

	return fmt.Sprintf("fund api %s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// errorBody matches the backend's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Method:     method,
		Path:       path,
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Detail != "":
			apiErr.Detail = parsed.Detail
		case parsed.Error != "":
			apiErr.Detail = parsed.Error
		}
	}

	return apiErr
}
