package main

import "github.com/Digital-Shane/movie-meta/internal/cmd"

func main() {
	cmd.Execute()
}
