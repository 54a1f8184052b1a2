package commands

import (
	"fmt"

	"git.home.luguber.info/inful/releasebot/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Output string `short:"o" help:"Where to write the file" default:"releasebot.yaml"`
	Force  bool   `help:"Overwrite an existing file"`
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	if err := config.Init(i.Output, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "wrote %s\n", i.Output)
	return nil
}
