// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
)

// Fatal writes "error: err" to stderr and exits with status 1. main
// calls it with the error from run.
func Fatal(err error) {
	writeFatal(os.Stderr, err)
	os.Exit(1)
}

func writeFatal(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}
