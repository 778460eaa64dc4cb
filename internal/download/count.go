package download

import "strconv"

// CountEstimate is the evolving estimate of remaining playlist items for
// one URL invocation. Display only; it never affects the event stream.
type CountEstimate struct {
	count int
	known bool
	// decrements observed before the estimate became known
	pendingDecrease int
}

// SetEstimate baselines the estimate on the first playlist count seen this
// invocation, applying any decrements accumulated so far and flooring at 1.
// Later calls are ignored; the first baseline wins.
func (c *CountEstimate) SetEstimate(count int) {
	if c.known {
		return
	}
	count -= c.pendingDecrease
	if count < 1 {
		count = 1
	}
	c.count = count
	c.known = true
	c.pendingDecrease = 0
}

// Decrement removes one item (skipped or errored) from the estimate. When
// the estimate is unknown the decrement is held back until SetEstimate.
func (c *CountEstimate) Decrement() {
	if !c.known {
		c.pendingDecrease++
		return
	}
	if c.count > 1 {
		c.count--
	}
}

// Known reports whether a baseline has been set this invocation.
func (c *CountEstimate) Known() bool {
	return c.known
}

// Display renders the total for the "N/M" position indicator, "??" while
// no playlist count has been seen.
func (c *CountEstimate) Display() string {
	if !c.known {
		return "??"
	}
	return strconv.Itoa(c.count)
}

// Reset clears the estimate for the next URL invocation.
func (c *CountEstimate) Reset() {
	*c = CountEstimate{}
}
