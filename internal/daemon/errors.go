// SPDX-License-Identifier: MIT

package daemon

import "errors"

var (
	// ErrMissingServer is returned when a daemon app is created without an HTTP server.
	ErrMissingServer = errors.New("http server is required")

	// ErrMissingBrowser is returned when a daemon app is created without a browser app.
	ErrMissingBrowser = errors.New("browser app is required")
)
