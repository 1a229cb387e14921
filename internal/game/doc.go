// Package game implements the blackjack table driven by chat commands.
//
// A Table hosts at most one round per player. Each round is a session that
// moves through Idle, AwaitingBet, AwaitingPlayerAction, ResolvingDealer and
// Resolved; resolved sessions are removed so the player is Idle again.
//
// # Basic Usage
//
//	table := game.NewTable(bank, deck.NewShoe(8, rng), logger)
//	events, err := table.Start(ctx, "alice", 500)
//	events, err = table.Hit(ctx, "alice")
//	events, err = table.Stand(ctx, "alice")
//
// Every call returns the structured events produced by the command, ending in
// an EventResolved when the round finished. Forfeits caused by an expired
// action timer are delivered through the handler set with WithTimeoutHandler.
//
// # Deterministic Testing
//
// Inject a stacked Shoe and a quartz mock clock:
//
//	clock := quartz.NewMock(t)
//	table := game.NewTable(bank, stackedShoe, logger, game.WithClock(clock))
//	clock.Advance(game.DefaultActionTimeout).MustWait(ctx)
//
// # Accounting
//
// The bet is debited when the round starts. Resolution only ever credits the
// Outcome's Delta back: twice the bet for a win, the bet for a push, bet plus
// floor(1.5*bet) for a blackjack and nothing for a loss, bust or forfeit.
package game
