// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package symsrv

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError represents a non-2xx response from the symbol server API.
// The server returns JSON error bodies with a detail message; plain
// text bodies from proxies are carried through as-is.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Detail is the error description from the server.
	Detail string
}

func (err *APIError) Error() string {
	detail := strings.TrimSpace(err.Detail)
	if detail == "" {
		return fmt.Sprintf("symsrv: HTTP %d", err.StatusCode)
	}
	return fmt.Sprintf("symsrv: HTTP %d: %s", err.StatusCode, detail)
}

// IsNotFound reports whether err is a symbol server 404 response.
// Optional API features (association, reprocessing) signal
// "unsupported" this way.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 404
}

// parseAPIErrorFromBody parses a symbol server error from a status
// code and response body.
func parseAPIErrorFromBody(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Detail != "" {
		apiError.Detail = wireError.Detail
	} else {
		apiError.Detail = string(body)
	}

	return apiError
}
