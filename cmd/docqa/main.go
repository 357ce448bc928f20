// cmd/docqa/main.go
package main

import (
	"github.com/joho/godotenv"

	cmd "github.com/mwiater/docqa/internal/cli"
)

// main loads an optional .env file and hands off to the cobra root command.
func main() {
	_ = godotenv.Load()
	cmd.Execute()
}
