package main

import (
	"github.com/alecthomas/kong"

	"github.com/bookforge/bookforge/cmd/bookforge/commands"
	"github.com/bookforge/bookforge/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("bookforge"),
		kong.Description("Assemble a book from versioned fragments, typeset it and publish the result."),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&commands.Global{}, &cli)
	ctx.FatalIfErrorf(err)
}
