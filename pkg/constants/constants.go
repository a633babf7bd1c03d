package constants

type contextKey string

const (
	TxKey        contextKey = "tx"
	PoolKey      contextKey = "pool"
	LoggerKey    contextKey = "logger"
	RequestIDKey contextKey = "request_id"
	SessionIDKey contextKey = "session_id"
)
