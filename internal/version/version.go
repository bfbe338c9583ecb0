// SPDX-License-Identifier: Apache-2.0

package version

// Set via -ldflags at build time.
var (
	Version = "0.1.0"
	Commit  = "none"
)
