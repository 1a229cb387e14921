package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command
type Globals struct {
	Config   string `short:"c" default:"blackjack.hcl" help:"Path to HCL configuration file"`
	Debug    bool   `help:"Enable debug logging"`
	LogLevel string `help:"Log level (overrides config)"`
	Seed     *int64 `help:"Deterministic shuffle seed (overrides config)"`
}

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Host a chat room with the blackjack bot"`
	Play    PlayCmd          `cmd:"" help:"Play against the bot in this terminal"`
	Client  ClientCmd        `cmd:"" help:"Join a chat room as a player"`
	Balance BalanceCmd       `cmd:"" help:"Show stored chip balances"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Chat blackjack bot"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
