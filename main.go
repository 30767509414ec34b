package main

import (
	"errors"
	"fmt"
	"os"

	_ "handover-launcher/cmd"
	"handover-launcher/cmd/root"
	"handover-launcher/internal/logger"
)

func main() {
	err := root.RootCmd.Execute()
	logger.Close()
	if err == nil {
		os.Exit(0)
	}

	var exitErr *root.ExitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(os.Stderr, "Error:", exitErr.Err)
		}
		os.Exit(exitErr.Code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
