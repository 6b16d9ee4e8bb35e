package prices

// trackedSymbols maps ticker symbols to CoinGecko asset identifiers. The
// refresh cycle requests all of these in one batched call.
var trackedSymbols = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"USDC":  "usd-coin",
	"USDT":  "tether",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"TON":   "the-open-network",
	"TRX":   "tron",
	"DAI":   "dai",
	"MATIC": "matic-network",
	"DOT":   "polkadot",
	"WBTC":  "wrapped-bitcoin",
	"AVAX":  "avalanche-2",
	"SHIB":  "shiba-inu",
	"LEO":   "leo-token",
	"LTC":   "litecoin",
	"UNI":   "uniswap",
	"LINK":  "chainlink",
	"ATOM":  "cosmos",
	"XLM":   "stellar",
	"XMR":   "monero",
	"ETC":   "ethereum-classic",
	"BCH":   "bitcoin-cash",
	"NEAR":  "near",
	"APT":   "aptos",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"FIL":   "filecoin",
	"ICP":   "internet-computer",
	"HBAR":  "hedera-hashgraph",
	"VET":   "vechain",
	"INJ":   "injective-protocol",
	"ALGO":  "algorand",
	"GRT":   "the-graph",
	"QNT":   "quant-network",
	"AAVE":  "aave",
	"MKR":   "maker",
	"STX":   "blockstack",
	"EGLD":  "elrond-erd-2",
	"SAND":  "the-sandbox",
	"MANA":  "decentraland",
	"THETA": "theta-token",
	"XTZ":   "tezos",
	"EOS":   "eos",
	"FLOW":  "flow",
	"AXS":   "axie-infinity",
	"CHZ":   "chiliz",
	"CRV":   "curve-dao-token",
	"LDO":   "lido-dao",
	"RNDR":  "render-token",
	"FTM":   "fantom",
	"KAS":   "kaspa",
	"SEI":   "sei-network",
	"SUI":   "sui",
	"PEPE":  "pepe",
	"ONDO":  "ondo-finance",
	"TIA":   "celestia",
}

// CommonNames maps frequently searched asset names to their tickers, used by
// the read API's search endpoint.
var CommonNames = map[string]string{
	"bitcoin":   "BTC",
	"ethereum":  "ETH",
	"binance":   "BNB",
	"solana":    "SOL",
	"ripple":    "XRP",
	"cardano":   "ADA",
	"dogecoin":  "DOGE",
	"polygon":   "MATIC",
	"avalanche": "AVAX",
	"polkadot":  "DOT",
	"litecoin":  "LTC",
	"chainlink": "LINK",
	"uniswap":   "UNI",
	"monero":    "XMR",
	"stellar":   "XLM",
	"cosmos":    "ATOM",
	"ondo":      "ONDO",
}

// Tracked reports whether a symbol is part of the tracked universe.
func Tracked(symbol string) bool {
	_, ok := trackedSymbols[symbol]
	return ok
}

// TrackedSymbols returns the tracked tickers in no particular order.
func TrackedSymbols() []string {
	out := make([]string, 0, len(trackedSymbols))
	for s := range trackedSymbols {
		out = append(out, s)
	}
	return out
}
