// Command stockctl is the operator CLI for the stocksim backend.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	configPath := flag.String("config", "configs/stocksim.yaml", "path to the YAML config file")

	e := &env{out: os.Stdout, open: openFromConfig(configPath)}
	for _, c := range commands(e) {
		commander.Register(c, "")
	}
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
