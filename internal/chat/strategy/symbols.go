package strategy

import "strings"

// cryptoCoinIDs maps crypto symbols to CoinGecko coin ids.
var cryptoCoinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"LTC":   "litecoin",
	"TRX":   "tron",
	"SHIB":  "shiba-inu",
	"ATOM":  "cosmos",
	"XLM":   "stellar",
	"UNI":   "uniswap",
	"TON":   "the-open-network",
	"USDC":  "usd-coin",
	"USDT":  "tether",
}

// regionalSuffixes maps well-known non-US blue chips to their Yahoo exchange suffix.
var regionalSuffixes = map[string]string{
	"RELIANCE":  ".NS",
	"TCS":       ".NS",
	"HDFCBANK":  ".NS",
	"ICICIBANK": ".NS",
	"SBIN":      ".NS",
	"BBCA":      ".JK",
	"BBRI":      ".JK",
	"BMRI":      ".JK",
	"TLKM":      ".JK",
	"ASII":      ".JK",
	"HSBA":      ".L",
	"ULVR":      ".L",
	"BARC":      ".L",
	"LLOY":      ".L",
	"SIE":       ".DE",
	"VOW":       ".DE",
	"NESN":      ".SW",
	"ROG":       ".SW",
}

// IsCryptoSymbol reports whether symbol is on the crypto allow-list or is a USDT pair.
func IsCryptoSymbol(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	if _, ok := cryptoCoinIDs[symbol]; ok {
		return true
	}
	return len(symbol) > len("USDT") && strings.HasSuffix(symbol, "USDT")
}

// CoinID returns the CoinGecko id for a crypto symbol. USDT pairs resolve to their
// base asset; unknown symbols fall back to the lower-cased symbol.
func CoinID(symbol string) string {
	symbol = strings.ToUpper(symbol)
	if base := strings.TrimSuffix(symbol, "USDT"); base != symbol && base != "" {
		symbol = base
	}
	if id, ok := cryptoCoinIDs[symbol]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// RegionalSymbol appends the home-market suffix for known non-US listings.
// Symbols that already carry a suffix are returned unchanged.
func RegionalSymbol(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	if suffix, ok := regionalSuffixes[strings.ToUpper(symbol)]; ok {
		return symbol + suffix
	}
	return symbol
}
