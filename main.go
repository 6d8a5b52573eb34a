package main

import (
	"os"

	"github.com/sukut-platform/go-portal/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
