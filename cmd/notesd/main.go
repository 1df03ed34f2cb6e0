package main

import (
	"fmt"
	"os"

	"github.com/MrEthical07/goNotes/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "notesd: %v\n", err)
		os.Exit(1)
	}
}
