package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/fmuoria/candidate-dashboard/internal/gui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	gui.NewApp().Run()
}
