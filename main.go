package main

import (
	"os"

	"github.com/GoBizAdmin/GoBizAdmin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
