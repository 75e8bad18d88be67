package main

import (
	"os"

	_ "time/tzdata"

	"github.com/Rishi-choudhary/PARA-AI/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
