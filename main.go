package main

import (
	"os"

	"github.com/upmail/upmail/app"
)

func main() {
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
