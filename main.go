// ABOUTME: Entry point for the spvadmin CLI
// ABOUTME: Terminal administration console for spvitamin-based services

package main

import (
	"fmt"
	"os"

	"github.com/nagypet/wstemplate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
