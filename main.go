package main

import (
	"fmt"
	"os"

	"github.com/jsp88/jsp/cmd"
	"github.com/jsp88/jsp/internal/api"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", api.Message(err))
		os.Exit(1)
	}
}
