package main

import (
	"github.com/d-valsamis/student-portal/app"
	"github.com/gofiber/fiber/v2/log"
)

func main() {
	// setup and run app
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatal(err)
	}
}
