package main

import (
	"context"
	"log"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("api exited with error: %v", err)
	}
}
