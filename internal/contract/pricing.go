package contract

import "math/big"

// priceDecayNumerator converts the configured rate, expressed in thousandths
// of a task per second, into the length of one decay window in nanoseconds:
// wait_time = 10^12 / mtasks_per_second.
const priceDecayNumerator = 1_000_000_000_000

// WaitTime is the duration of one full price-decay window in nanoseconds,
// reported verbatim as the taskset's expected cycle length.
func (ts *Taskset) WaitTime() uint64 {
	return priceDecayNumerator / ts.MtasksPerSecond
}

// PriceAt computes the auction price at the given instant: a linear decline
// from MaxPrice at the start of the current price epoch down to MinPrice once
// a full wait time has elapsed, holding at MinPrice until the epoch resets.
func (ts *Taskset) PriceAt(now uint64) Uint128 {
	waitTime := ts.WaitTime()

	var elapsed uint64
	if now > ts.PriceEpochStart {
		elapsed = now - ts.PriceEpochStart
	}
	if elapsed >= waitTime {
		return ts.MinPrice
	}

	span := new(big.Int).Sub(ts.MaxPrice.value(), ts.MinPrice.value())
	drop := span.Mul(span, new(big.Int).SetUint64(elapsed))
	drop.Div(drop, new(big.Int).SetUint64(waitTime))

	return Uint128{n: new(big.Int).Sub(ts.MaxPrice.value(), drop)}
}

// TimeUntilPrice reports how long until the declining price reaches target
// under the current epoch, clamped at zero when the price is already at or
// below it. A target quoted at the top of the window therefore reads zero
// immediately; it turns positive only after a rival claim resets the epoch.
func (ts *Taskset) TimeUntilPrice(target Uint128, now uint64) uint64 {
	if ts.PriceAt(now).Cmp(target) <= 0 {
		return 0
	}

	span := new(big.Int).Sub(ts.MaxPrice.value(), ts.MinPrice.value())
	if span.Sign() == 0 {
		return 0
	}

	// Instant at which the decline crosses the target level.
	offset := new(big.Int).Sub(ts.MaxPrice.value(), target.value())
	offset.Mul(offset, new(big.Int).SetUint64(ts.WaitTime()))
	offset.Div(offset, span)

	at := new(big.Int).Add(new(big.Int).SetUint64(ts.PriceEpochStart), offset)
	nowBig := new(big.Int).SetUint64(now)
	if at.Cmp(nowBig) <= 0 {
		return 0
	}
	return new(big.Int).Sub(at, nowBig).Uint64()
}
