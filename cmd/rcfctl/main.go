package main

import (
	"fmt"
	"os"

	"github.com/steelsid0609/training-rcf/internal/cli"
	"github.com/steelsid0609/training-rcf/internal/config"
)

func main() {
	config.LoadEnv()
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
