package service

import (
	"regexp"
	"sort"
	"strings"

	"golang-market-chat/internal/chat/strategy"
)

// TickerResult is the outcome of scanning a message for instruments.
type TickerResult struct {
	// Symbols are upper-case, de-duplicated, in order of first occurrence.
	Symbols  []string
	IsCrypto bool
}

var tickerPattern = regexp.MustCompile(`\$[A-Za-z]{1,10}\b|\b[A-Z]{2,10}\b`)

// stopWords are upper-case words that look like tickers but almost never are.
var stopWords = toSet(
	"A", "I", "AI", "AM", "AN", "AND", "ANY", "ARE", "AS", "AT", "ATH", "BE", "BUT", "BUY", "BY",
	"CAN", "CEO", "CFO", "CPI", "CTO", "DO", "DOES", "EPS", "ETF", "EU", "EUR", "FAQ", "FED", "FOR",
	"FROM", "GDP", "GET", "HAS", "HE", "HOLD", "HOW", "IF", "IMO", "IN", "IPO", "IS", "IT", "ITS",
	"LOL", "ME", "MY", "NEWS", "NO", "NOT", "NOW", "OF", "OK", "ON", "OR", "OUR", "PE", "PM", "SELL",
	"SHE", "SO", "THE", "THAT", "THIS", "TO", "UK", "UP", "US", "USA", "USD", "WAS", "WE", "WHAT",
	"WHEN", "WHERE", "WHO", "WHY", "WILL", "WITH", "YOU", "YTD",
)

// DefaultTickerAliases maps lower-case company and coin names to symbols.
var DefaultTickerAliases = map[string]string{
	"apple":     "AAPL",
	"microsoft": "MSFT",
	"google":    "GOOGL",
	"alphabet":  "GOOGL",
	"amazon":    "AMZN",
	"tesla":     "TSLA",
	"nvidia":    "NVDA",
	"meta":      "META",
	"facebook":  "META",
	"netflix":   "NFLX",
	"jpmorgan":  "JPM",
	"disney":    "DIS",
	"palantir":  "PLTR",
	"coinbase":  "COIN",
	"walmart":   "WMT",
	"s&p 500":   "SPY",
	"nasdaq":    "QQQ",
	"bitcoin":   "BTC",
	"ethereum":  "ETH",
	"solana":    "SOL",
	"dogecoin":  "DOGE",
	"ripple":    "XRP",
	"cardano":   "ADA",
}

// DefaultCryptoKeywords mark a message as crypto-flavoured.
var DefaultCryptoKeywords = []string{
	"crypto", "cryptocurrency", "cryptocurrencies", "bitcoin", "ethereum", "blockchain", "altcoin",
	"stablecoin", "defi", "nft", "web3", "solana", "dogecoin", "binance", "token",
}

type tickerMatch struct {
	pos    int
	symbol string
}

// ExtractTickers scans text for instrument symbols using bare upper-case tokens,
// $-prefixed tokens and known names. It is heuristic: English words that are
// also tickers can produce false positives.
func ExtractTickers(text string, aliases map[string]string, cryptoKeywords []string) TickerResult {
	var matches []tickerMatch

	for _, loc := range tickerPattern.FindAllStringIndex(text, -1) {
		symbol := strings.ToUpper(strings.TrimPrefix(text[loc[0]:loc[1]], "$"))
		if _, stop := stopWords[symbol]; stop {
			continue
		}
		matches = append(matches, tickerMatch{pos: loc[0], symbol: symbol})
	}

	lower := strings.ToLower(text)
	for alias, symbol := range aliases {
		if pos := indexWord(lower, alias); pos >= 0 {
			matches = append(matches, tickerMatch{pos: pos, symbol: strings.ToUpper(symbol)})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].pos != matches[j].pos {
			return matches[i].pos < matches[j].pos
		}
		return matches[i].symbol < matches[j].symbol
	})

	result := TickerResult{}
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, dup := seen[m.symbol]; dup {
			continue
		}
		seen[m.symbol] = struct{}{}
		result.Symbols = append(result.Symbols, m.symbol)
		if strategy.IsCryptoSymbol(m.symbol) {
			result.IsCrypto = true
		}
	}

	if !result.IsCrypto {
		for _, kw := range cryptoKeywords {
			if indexWord(lower, strings.ToLower(kw)) >= 0 {
				result.IsCrypto = true
				break
			}
		}
	}

	return result
}

// indexWord returns the first index of needle in s that stands as its own word.
// A plural "s" is allowed after it, so "apple" matches "Apple's" and "tokens"
// but neither "pineapple" nor "Applebee's".
func indexWord(s, needle string) int {
	offset := 0
	for {
		idx := strings.Index(s[offset:], needle)
		if idx < 0 {
			return -1
		}
		pos := offset + idx
		if (pos == 0 || !isASCIILetter(s[pos-1])) && endsWord(s, pos+len(needle)) {
			return pos
		}
		offset = pos + 1
	}
}

func endsWord(s string, end int) bool {
	if end < len(s) && s[end] == 's' {
		end++
	}
	return end == len(s) || !isASCIILetter(s[end])
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
