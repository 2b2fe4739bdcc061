package main

import cmd "github.com/rohmanhakim/imdb-mcp/internal/cli"

func main() {
	cmd.Execute()
}
