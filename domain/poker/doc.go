// Package poker implements the domain logic for one Texas Hold'em hand:
// the shuffled deck, the betting state machine, side-pot allocation, and
// showdown settlement.
//
// # Core Types
//
// Round: The betting state machine for one hand, from blind posting
// through showdown. It validates every action against the rules of the
// game before mutating any state.
//
// Player: A seated player with a durable identity, seat ordinal, and
// chip stack.
//
// Deck: A uniformly shuffled 52-card deck dealt without replacement,
// serializable to an opaque blob for mid-hand state transfer.
//
// Pot: A main or side pot with its eligible-player set, produced by
// SidePots from cumulative bets.
//
// # Game Flow
//
// A hand progresses preflop → flop → turn → river → showdown. The
// package is synchronous and deterministic given a fixed shuffle; turn
// timers, reconnection and room lifecycle live in the application layer.
//
// # Hand Evaluation
//
// Showdown ranks best-of-seven hands through the HandRanker interface,
// backed by the github.com/paulhankin/poker evaluator. Ties split pots
// equally with the odd chip awarded to the earliest seat.
package poker
