package main

import (
	"trendpress/cmd/handlers"
)

func main() {
	handlers.Execute()
}
