package main

import (
	"os"

	"horse.fit/gaffer/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
