// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers shared by the slsship
// binaries: the fatal-error exit used before or after the structured
// logger exists, and the logger itself.
package process
