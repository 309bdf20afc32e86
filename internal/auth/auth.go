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

// Package auth validates bearer tokens for the MCP endpoints.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ErrUnauthorized is returned for absent, empty or unknown tokens.
var ErrUnauthorized = errors.New("invalid token")

const invalidTokenDetail = "Invalid token"

// Identity is who a token belongs to.
type Identity struct {
	Phone string `json:"phone"`
}

// Validator resolves a bearer token to an identity.
type Validator interface {
	Validate(ctx context.Context, token string) (Identity, error)
}

// StaticValidator checks tokens against a fixed table.
type StaticValidator struct {
	tokens   map[string]string
	fallback string
}

// NewStaticValidator creates a validator over tokens (token to phone). With an
// empty table any non-empty token maps to fallback.
func NewStaticValidator(tokens map[string]string, fallback string) *StaticValidator {
	t := make(map[string]string, len(tokens))
	for k, v := range tokens {
		if k = strings.TrimSpace(k); k != "" {
			t[k] = v
		}
	}
	return &StaticValidator{tokens: t, fallback: fallback}
}

// Validate implements Validator.
func (v *StaticValidator) Validate(_ context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthorized
	}
	if len(v.tokens) == 0 {
		return Identity{Phone: v.fallback}, nil
	}
	phone, ok := v.tokens[token]
	if !ok {
		return Identity{}, ErrUnauthorized
	}
	return Identity{Phone: phone}, nil
}

// BearerToken returns the Authorization header value with an optional
// "Bearer " prefix removed.
func BearerToken(r *http.Request) string {
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

type identityContextKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity stored by Middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// ValidateHandler answers POST /mcp/validate with the token's identity.
func ValidateHandler(v Validator, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := v.Validate(r.Context(), BearerToken(r))
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: unauthorizedDetail(err)})
			return
		}
		writeJSON(w, http.StatusOK, id)
	}
}

// Middleware rejects requests without a valid bearer token and stores the
// identity in the request context.
func Middleware(v Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Validate(r.Context(), BearerToken(r))
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: unauthorizedDetail(err)})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func unauthorizedDetail(err error) string {
	if errors.Is(err, ErrUnauthorized) {
		return invalidTokenDetail
	}
	return invalidTokenDetail + ": " + err.Error()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
