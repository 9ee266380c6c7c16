package service

import (
	"fmt"
	"strings"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/pkg/common"
	"golang-market-chat/pkg/utils"

	"github.com/dustin/go-humanize"
)

// PromptInput is everything the composer needs to build one completion request.
type PromptInput struct {
	Mode          string
	Message       string
	Portfolio     []string
	Quotes        []*dto.Quote
	PageText      string
	PriorTurns    []dto.PriorTurn
	MaxPriorTurns int
	MaxPageChars  int
}

const (
	generalPersona = `You are a knowledgeable assistant for news and financial markets. Answer clearly and concisely.`

	marketPersona = `You are a professional equity market analyst. Ground every statement about prices in the live market data provided, and say so plainly when no live data is available for an instrument.`

	cryptoPersona = `You are a professional crypto-asset analyst. Ground every statement about prices in the live market data provided, and say so plainly when no live data is available for an asset. Mention volatility and custody risk where relevant.`

	formattingDirectives = `Formatting rules:
- Use short paragraphs and bullet points.
- Quote prices with two decimals and a currency symbol.
- Never give personalised financial advice or place orders; frame views as analysis.`
)

// ComposePrompt assembles the system message, the bounded window of prior turns
// and the new user message, in that order.
func ComposePrompt(in PromptInput) []dto.ChatMessage {
	var system strings.Builder
	system.WriteString(personaFor(in.Mode))
	system.WriteString("\n\n")
	system.WriteString(formattingDirectives)

	if len(in.Portfolio) > 0 {
		system.WriteString("\n\nThe user holds: ")
		system.WriteString(strings.Join(in.Portfolio, ", "))
		system.WriteString(".")
	}

	if block := quoteBlock(in.Quotes); block != "" {
		system.WriteString("\n\nLive market data:\n")
		system.WriteString(block)
	}

	if page := strings.TrimSpace(in.PageText); page != "" {
		if in.MaxPageChars > 0 {
			page = utils.TruncateRunes(page, in.MaxPageChars)
		}
		system.WriteString("\n\nContent of the page the user linked:\n")
		system.WriteString(page)
	}

	messages := []dto.ChatMessage{{Role: common.RoleSystem, Content: system.String()}}

	turns := in.PriorTurns
	if in.MaxPriorTurns >= 0 && len(turns) > in.MaxPriorTurns {
		turns = turns[len(turns)-in.MaxPriorTurns:]
	}
	for _, turn := range turns {
		role := turn.Role
		if role != common.RoleUser && role != common.RoleAssistant {
			continue
		}
		messages = append(messages, dto.ChatMessage{Role: role, Content: turn.Content})
	}

	return append(messages, dto.ChatMessage{Role: common.RoleUser, Content: in.Message})
}

func personaFor(mode string) string {
	switch mode {
	case common.ModeMarket:
		return marketPersona
	case common.ModeCrypto:
		return cryptoPersona
	default:
		return generalPersona
	}
}

// quoteBlock renders one line per resolved quote. Unresolved entries are skipped.
func quoteBlock(quotes []*dto.Quote) string {
	var b strings.Builder
	for _, q := range quotes {
		if q == nil {
			continue
		}
		fmt.Fprintf(&b, "%s: $%.2f (%+.2f, %+.2f%%)", q.Symbol, q.Price, q.Change, q.ChangePercent)
		if q.Volume > 0 {
			fmt.Fprintf(&b, " vol %s", humanize.Comma(int64(q.Volume)))
		}
		if !q.LastUpdatedAt.IsZero() {
			fmt.Fprintf(&b, " as of %s", utils.PrettyDate(q.LastUpdatedAt))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
