package messaging

import "sync/atomic"

// ControlMetrics contains atomic metrics for a MessageControl.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ControlMetrics struct {
	// RequestCount indicates the number of requests sent, not counting retries.
	RequestCount atomic.Uint64
	// RetryCount indicates the number of request retries.
	RetryCount atomic.Uint64
	// TimeoutCount indicates the number of requests that exhausted their retries.
	TimeoutCount atomic.Uint64
	// ResponseCount indicates the number of responses delivered to a waiting sender.
	ResponseCount atomic.Uint64
	// DroppedResponseCount indicates the number of responses with no waiting sender.
	DroppedResponseCount atomic.Uint64
	// RequestHandledCount indicates the number of incoming requests handled.
	RequestHandledCount atomic.Uint64
	// FrameErrCount indicates the number of CRC and malformed frame errors.
	FrameErrCount atomic.Uint64
	// DiscardCount indicates the number of times stale buffered bytes were discarded.
	DiscardCount atomic.Uint64
	// InflightCount indicates the number of requests waiting for a response.
	InflightCount atomic.Int64
}
