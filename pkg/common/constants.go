package common

const (
	RedisStreamChatExchangePersist = "chat.exchange.persist"

	RedisStreamGroup    = "chat-persistence-group"
	RedisStreamConsumer = "chat-persistence-consumer"
)

const (
	RedisKeyQuote     = "quote:%s"
	RedisKeyRateLimit = "ratelimit:chat:%s"
)

const (
	ModeGeneral = "general"
	ModeMarket  = "market"
	ModeCrypto  = "crypto"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// IsElevatedMode reports whether mode enables live-data enrichment and the anonymous quota.
func IsElevatedMode(mode string) bool {
	return mode == ModeMarket || mode == ModeCrypto
}
