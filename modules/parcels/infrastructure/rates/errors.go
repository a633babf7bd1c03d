package rates

import "github.com/swiftparcel/parceld/pkg/serrors"

// ErrRateUnavailable covers every way of not getting a rate: transport
// failure, timeout, non-success status, or a malformed response body.
// Callers treat it as transient and rely on broker redelivery.
var ErrRateUnavailable = serrors.NewError("RATE_UNAVAILABLE", "exchange rate unavailable", "")
