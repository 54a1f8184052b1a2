package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/releasebot/cmd/releasebot/commands"
	ferrors "git.home.luguber.info/inful/releasebot/internal/foundation/errors"
	"git.home.luguber.info/inful/releasebot/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("releasebot"),
		kong.Description("Announce new Factorio releases in a Telegram chat."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{}, &cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
