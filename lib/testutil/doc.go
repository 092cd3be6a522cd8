// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds the bounded channel waits shared by slsship
// tests.
//
// Tests that drive timers do so through a fake clock, so the only real
// wall-clock waits in the suite are the hang guards here: a test that
// waits on a delivery or a done channel fails with a message after a
// timeout instead of hanging the whole run.
package testutil
