package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vortex-trading/vortex/internal/market"
)

const defaultBaseURL = "https://api.dexscreener.com/latest"

// Client is the DexScreener REST market.Provider. It is an external
// collaborator: the engine only sees TokenSnapshot batches and tolerates
// failures by keeping its last-known universe.
type Client struct {
	baseURL string
	http    *http.Client
	queries []string // search queries forming the scan universe
}

// New creates a Client. queries drive the scan universe; an empty list
// defaults to trending solana pairs.
func New(baseURL string, timeout time.Duration, queries []string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if len(queries) == 0 {
		queries = []string{"solana"}
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		queries: queries,
	}
}

// pairResponse mirrors the DexScreener pairs payload.
type pairResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	BaseToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
		Name    string `json:"name"`
	} `json:"baseToken"`
	PriceUSD    string `json:"priceUsd"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	FDV float64 `json:"fdv"`
}

// Snapshots fetches the scan universe across all configured queries,
// de-duplicated by token address.
func (c *Client) Snapshots(ctx context.Context) ([]market.TokenSnapshot, error) {
	seen := make(map[string]struct{})
	var out []market.TokenSnapshot

	for _, q := range c.queries {
		resp, err := c.get(ctx, "dex/search?q="+url.QueryEscape(q))
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Pairs {
			snap, ok := toSnapshot(p)
			if !ok {
				continue
			}
			if _, dup := seen[snap.Address]; dup {
				continue
			}
			seen[snap.Address] = struct{}{}
			out = append(out, snap)
		}
	}

	log.Debug().Int("tokens", len(out)).Msg("dexscreener: universe fetched")
	return out, nil
}

// Lookup fetches the best pair for a single token address.
func (c *Client) Lookup(ctx context.Context, address string) (*market.TokenSnapshot, error) {
	resp, err := c.get(ctx, "dex/tokens/"+url.PathEscape(address))
	if err != nil {
		return nil, err
	}
	for _, p := range resp.Pairs {
		if snap, ok := toSnapshot(p); ok {
			return &snap, nil
		}
	}
	return nil, nil
}

// Name returns the provider's identifier.
func (c *Client) Name() string { return "dexscreener" }

func (c *Client) get(ctx context.Context, endpoint string) (*pairResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dexscreener request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener status %d", resp.StatusCode)
	}

	var parsed pairResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode dexscreener response: %w", err)
	}
	return &parsed, nil
}

func toSnapshot(p pair) (market.TokenSnapshot, bool) {
	if p.BaseToken.Address == "" || p.PriceUSD == "" {
		return market.TokenSnapshot{}, false
	}
	priceF, err := strconv.ParseFloat(p.PriceUSD, 64)
	if err != nil || priceF <= 0 {
		return market.TokenSnapshot{}, false
	}

	return market.TokenSnapshot{
		Address:        p.BaseToken.Address,
		Symbol:         p.BaseToken.Symbol,
		Name:           p.BaseToken.Name,
		PriceUSD:       decimal.NewFromFloat(priceF),
		PriceChange24h: p.PriceChange.H24,
		Volume24h:      p.Volume.H24,
		Liquidity:      p.Liquidity.USD,
		MarketCap:      p.FDV,
	}, true
}
