package main

import (
	"log"

	"wbanalytics_api/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("service failed: %v", err)
	}
}
