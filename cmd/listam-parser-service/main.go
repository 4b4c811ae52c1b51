package main

import (
	"log"
	"os"

	"listam-parser-service/internal"
)

func main() {
	mode, err := internal.ParseMode(os.Args[1:])
	if err != nil {
		log.Printf("%v", err)
		internal.Usage()
		os.Exit(2)
	}

	application, err := internal.NewApp(mode)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Application run failed: %v", err)
	}
}
