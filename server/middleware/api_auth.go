// Copyright 2024 Tracebook, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/bluekeyes/hatpear"

	"github.com/tracebook/github-bridge/server/apierror"
)

// APIAuth returns middleware that rejects requests without a bearer
// token matching the shared secret the hosting tracker uses to call
// this service. An empty secret disables the check.
func APIAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return hatpear.Try(hatpear.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			if secret == "" {
				next.ServeHTTP(w, r)
				return nil
			}

			token := getBearerToken(r)
			if token == "" {
				return apierror.WriteAPIError(w, http.StatusUnauthorized, "missing token")
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				return apierror.WriteAPIError(w, http.StatusUnauthorized, "invalid token")
			}

			next.ServeHTTP(w, r)
			return nil
		}))
	}
}

func getBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return ""
}
