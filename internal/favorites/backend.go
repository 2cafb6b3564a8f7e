// SPDX-License-Identifier: MIT

// Package favorites persists the favorites set as a JSON-encoded array of
// stream URLs under one fixed key.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Key is the fixed storage key holding the favorites array.
const Key = "favorites"

// ErrCorrupt is returned by Decode when the stored value is not a JSON array of strings.
var ErrCorrupt = errors.New("favorites: stored value is not a JSON string array")

// Backend stores the raw encoded favorites value.
type Backend interface {
	// Name identifies the backend in logs and health output.
	Name() string
	// Read returns the stored value. found is false when nothing was ever written.
	Read(ctx context.Context) (data []byte, found bool, err error)
	// Write replaces the stored value.
	Write(ctx context.Context, data []byte) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Encode serializes favorites as a sorted JSON array. A nil set encodes as [].
func Encode(urls []string) ([]byte, error) {
	out := make([]string, len(urls))
	copy(out, urls)
	sort.Strings(out)
	return json.Marshal(out)
}

// Decode parses a stored favorites value.
func Decode(data []byte) ([]string, error) {
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}
