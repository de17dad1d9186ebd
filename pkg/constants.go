package pkg

import "time"

const (
	// DefaultEndpoint is used when neither --xcat3-url nor XCAT3_URL is set.
	DefaultEndpoint = "http://localhost:3010"

	// APIVersion is the path prefix of every xCAT3 resource.
	APIVersion = "/v1"

	// DefaultMaxRetries is the number of retries after the first attempt
	// when the service reports a conflict or is unavailable.
	DefaultMaxRetries = 5

	// DefaultRetryInterval is the fixed delay between two attempts.
	DefaultRetryInterval = 2 * time.Second

	// DefaultRequestTimeout bounds a single HTTP round trip.
	DefaultRequestTimeout = 600 * time.Second

	// BatchThreshold is the node count above which a bulk request is split
	// into several batches dispatched in parallel.
	BatchThreshold = 3000

	// BatchTimeout bounds the wait for all batches of one bulk operation.
	BatchTimeout = 3600 * time.Second
)
