package kafka

// Topic definitions for simulation event streaming
const (
	// TopicTradeExecuted carries one event per non-zero delegator trade
	TopicTradeExecuted = "revshare.trades.executed"

	// TopicPoolStep carries the pool snapshot at the end of each timestep
	TopicPoolStep = "revshare.pool.steps"
)
