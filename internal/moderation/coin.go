package moderation

import "math/rand"

// Coin is the randomness behind the fact-check step. Flip returning true
// means the fact checker judged the post false.
type Coin interface {
	Flip() bool
}

// CoinFunc adapts a function to Coin.
type CoinFunc func() bool

// Flip implements Coin.
func (f CoinFunc) Flip() bool { return f() }

// FairCoin returns true with probability one half.
var FairCoin Coin = CoinFunc(func() bool { return rand.Intn(2) == 0 })
