// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nicholasgasior/convertd"
)

// handlerWithError is an HTTP handler that returns its failure instead of
// writing it, so that status mapping lives in one place.
type handlerWithError func(http.ResponseWriter, *http.Request) error

// requestError is a failure detected while reading the request, before any
// conversion is attempted.
type requestError struct {
	code int
	msg  string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{code: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Detail string `json:"detail"`
}

// statusOf maps err to an HTTP status and the detail shown to the client.
func statusOf(err error) (int, string) {
	var reqErr *requestError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.code, reqErr.msg
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)
	case convertd.SeverityOf(err) == convertd.SeverityClient:
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "Conversion failed: " + err.Error()
}

func (h *Handler) errorHandler(fn handlerWithError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		code, detail := statusOf(err)
		if code >= http.StatusInternalServerError {
			h.logger.Error("request failed",
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Error(err))
		} else {
			h.logger.Debug("request rejected", zap.Int("status", code), zap.Error(err))
		}
		writeJSON(w, code, errorResponse{Detail: detail})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
