package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"
)

// BalanceCmd prints balances without opening new accounts
type BalanceCmd struct {
	Players []string `arg:"" optional:"" help:"Players to show (default: everyone)"`
}

func (c *BalanceCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	balances, err := store.Load(context.Background())
	if err != nil {
		return fmt.Errorf("load balances: %w", err)
	}

	players := c.Players
	if len(players) == 0 {
		for player := range balances {
			players = append(players, player)
		}
		slices.Sort(players)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PLAYER\tCHIPS")
	for _, player := range players {
		chips, ok := balances[player]
		if !ok {
			_, _ = fmt.Fprintf(w, "%s\t%d (new)\n", player, cfg.Game.StartingBalance)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\n", player, chips)
	}
	return w.Flush()
}
