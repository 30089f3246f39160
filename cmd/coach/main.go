package main

import (
	// Autoloads .env file to supply environment variables
	_ "github.com/joho/godotenv/autoload"

	"github.com/jbaldivieso/coach/internal/cli"
)

func main() {
	cli.Execute()
}
