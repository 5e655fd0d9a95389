/*
 * Copyright 2024 Jonas Kaninda
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jkaninda/proxy-center/internal/store"
)

type VerifierConfig struct {
	// Secret verifies HS256 session tokens.
	Secret string
	// JwksURL verifies RS256/ES256 session tokens with keys published by the identity provider.
	JwksURL string
	// Leeway tolerates clock skew on exp/iat.
	Leeway time.Duration
}

// Verifier validates inbound session tokens and checks they are still active.
type Verifier struct {
	store   store.CredentialStore
	parser  *jwt.Parser
	keyfunc jwt.Keyfunc
}

// NewVerifier builds a Verifier. ctx bounds the lifetime of the JWKS refresher.
func NewVerifier(ctx context.Context, conf VerifierConfig, st store.CredentialStore) (*Verifier, error) {
	if st == nil {
		return nil, errors.New("auth: credential store is required")
	}
	opts := []jwt.ParserOption{jwt.WithLeeway(conf.Leeway)}
	var keyfunc jwt.Keyfunc
	switch {
	case conf.JwksURL != "":
		kf, err := newJWKSKeyfunc(ctx, conf.JwksURL)
		if err != nil {
			return nil, err
		}
		keyfunc = kf
		opts = append(opts, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}))
	case conf.Secret != "":
		secret := []byte(conf.Secret)
		keyfunc = func(*jwt.Token) (any, error) { return secret, nil }
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	default:
		return nil, errors.New("auth: either a secret or a JWKS URL is required")
	}
	return &Verifier{store: st, parser: jwt.NewParser(opts...), keyfunc: keyfunc}, nil
}

// Verify validates raw and returns its claims. Invalid, expired and revoked tokens
// yield an error wrapping ErrUnauthorized; credential store failures do not.
func (v *Verifier) Verify(ctx context.Context, raw string) (*IdentityClaims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, errMissingToken)
	}
	claims := &IdentityClaims{}
	if _, err := v.parser.ParseWithClaims(raw, claims, v.keyfunc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if claims.UserID.IsZero() {
		return nil, fmt.Errorf("%w: token has no user id", ErrUnauthorized)
	}
	active, err := v.store.IsTokenActive(ctx, claims.UserID.String(), raw)
	if err != nil {
		return nil, fmt.Errorf("auth: check active token: %w", err)
	}
	if !active {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, errRevoked)
	}
	return claims, nil
}
