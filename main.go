// Package main is the entry point for the arsu CLI.
package main

import (
	"github.com/arsu-cli/arsu/cmd"
	"github.com/arsu-cli/arsu/config"
	"github.com/arsu-cli/arsu/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
