package main

import "github.com/MeKo-Tech/noisesandbox/internal/cmd"

func main() {
	cmd.Execute()
}
