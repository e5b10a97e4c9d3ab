// Package zerodha sources a price chain from the Kite Connect
// historical data API, for runs where no chain file is supplied.
package zerodha

import (
	"context"
	"fmt"
	"time"

	"tradelog-audit/internal/chain"
	"tradelog-audit/internal/interfaces"
	"tradelog-audit/internal/logger"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string
	Interval    string
}

type ChainSource struct {
	p  Params
	kc *kiteconnect.Client
}

var _ interfaces.ChainSource = (*ChainSource)(nil)

func New(p Params) *ChainSource {
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	if p.Interval == "" {
		p.Interval = "minute"
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return &ChainSource{p: p, kc: kc}
}

// FetchChain builds a chain index from candle closes for the given
// symbols over [from, to]. Symbols the exchange does not know are
// logged and left out; their rows then surface as chain violations,
// which is the honest outcome for an unresolvable instrument.
func (z *ChainSource) FetchChain(ctx context.Context, symbols []string, from, to time.Time) (*chain.Index, error) {
	tokens, err := z.resolveTokens(symbols)
	if err != nil {
		return nil, err
	}

	idx := chain.New()
	for _, sym := range symbols {
		token, ok := tokens[sym]
		if !ok {
			logger.Warn(ctx, "Symbol not found on exchange, no chain prices for it",
				"symbol", sym, "exchange", z.p.Exchange)
			continue
		}
		candles, err := z.kc.GetHistoricalData(token, z.p.Interval, from, to, false, false)
		if err != nil {
			return nil, fmt.Errorf("fetch candles for %s: %w", sym, err)
		}
		for _, c := range candles {
			idx.Add(c.Date.Unix(), sym, c.Close)
		}
	}
	if idx.Len() == 0 {
		return nil, fmt.Errorf("no chain prices fetched for %d symbols", len(symbols))
	}
	return idx, nil
}

func (z *ChainSource) resolveTokens(symbols []string) (map[string]int, error) {
	instruments, err := z.kc.GetInstrumentsByExchange(z.p.Exchange)
	if err != nil {
		return nil, fmt.Errorf("fetch instruments: %w", err)
	}
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}
	tokens := make(map[string]int, len(symbols))
	for _, inst := range instruments {
		if wanted[inst.Tradingsymbol] {
			tokens[inst.Tradingsymbol] = inst.InstrumentToken
		}
	}
	return tokens, nil
}
