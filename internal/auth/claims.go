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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// UserID is a user identifier that may be encoded as a JSON number or string.
// It is re-emitted in the form it was received.
type UserID struct {
	value  string
	quoted bool
}

func NewUserID(id int64) UserID {
	return UserID{value: strconv.FormatInt(id, 10)}
}

func (id UserID) String() string { return id.value }

func (id UserID) IsZero() bool { return id.value == "" }

func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*id = UserID{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID{value: s, quoted: true}
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*id = UserID{value: string(b)}
	default:
		return fmt.Errorf("auth: invalid user id %s", b)
	}
	return nil
}

func (id UserID) MarshalJSON() ([]byte, error) {
	if id.value == "" {
		return []byte("null"), nil
	}
	if id.quoted {
		return json.Marshal(id.value)
	}
	return []byte(id.value), nil
}

// RoleIDs is the ordered role list of a user. Numeric strings are accepted on input.
type RoleIDs []int64

func (r *RoleIDs) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("auth: roles must be an array: %w", err)
	}
	out := make(RoleIDs, 0, len(raw))
	for _, item := range raw {
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return fmt.Errorf("auth: invalid role id %s", item)
		}
		id, err := n.Int64()
		if err != nil {
			return fmt.Errorf("auth: invalid role id %s", item)
		}
		out = append(out, id)
	}
	*r = out
	return nil
}

// IdentityClaims is the payload of an inbound session token.
type IdentityClaims struct {
	UserID   UserID  `json:"id"`
	Username string  `json:"username,omitempty"`
	Nickname string  `json:"nickname,omitempty"`
	Roles    RoleIDs `json:"roles"`
	UserType any     `json:"userType,omitempty"`
	jwt.RegisteredClaims
}

// DownstreamClaims is the payload of the credential attached to forwarded requests.
type DownstreamClaims struct {
	UserID      UserID   `json:"id"`
	Username    string   `json:"username,omitempty"`
	Nickname    string   `json:"nickname,omitempty"`
	Roles       RoleIDs  `json:"roles"`
	UserType    any      `json:"userType,omitempty"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}
