// Package retry provides the backoff primitives the VK client uses between
// retry attempts.
//
// The VK retry loop computes its delays as backoffFactor * 2^attempt, which
// ExponentialBackoff expresses with BaseDelay set to the factor and
// Multiplier 2. Jitter and the delay cap are available but disabled by
// default so the delay law stays exact.
//
//	backoff := &retry.ExponentialBackoff{
//		BaseDelay:  90 * time.Millisecond,
//		Multiplier: 2,
//	}
//	delay := backoff.NextDelay(attempt)
//	if err := retry.Wait(ctx, delay); err != nil {
//		return err // context cancelled
//	}
package retry
