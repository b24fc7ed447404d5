// Command camphubctl runs the camp registration operations from a shell:
// creating users, producing the import template, importing and exporting
// workbooks, and running group assignment.
//
// It reads the same CAMPHUB_* settings as the server, from the environment
// or a .env file in the working directory.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
