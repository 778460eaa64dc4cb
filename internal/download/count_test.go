package download

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountEstimateUnknownDisplays(t *testing.T) {
	var c CountEstimate
	assert.False(t, c.Known())
	assert.Equal(t, "??", c.Display())
}

func TestCountEstimateFirstBaselineWins(t *testing.T) {
	var c CountEstimate
	c.SetEstimate(10)
	c.SetEstimate(50)
	assert.Equal(t, "10", c.Display())
}

func TestCountEstimateDecrement(t *testing.T) {
	var c CountEstimate
	c.SetEstimate(3)
	c.Decrement()
	assert.Equal(t, "2", c.Display())
}

func TestCountEstimateFloorsAtOne(t *testing.T) {
	var c CountEstimate
	c.SetEstimate(2)
	c.Decrement()
	c.Decrement()
	c.Decrement()
	assert.Equal(t, "1", c.Display())
}

func TestCountEstimatePendingDecreaseAppliedAtBaseline(t *testing.T) {
	var c CountEstimate
	c.Decrement()
	c.Decrement()
	assert.Equal(t, "??", c.Display())

	c.SetEstimate(10)
	assert.Equal(t, "8", c.Display())
}

func TestCountEstimatePendingDecreaseFloorsBaseline(t *testing.T) {
	var c CountEstimate
	c.Decrement()
	c.Decrement()
	c.Decrement()
	c.SetEstimate(2)
	assert.Equal(t, "1", c.Display())
}

func TestCountEstimateReset(t *testing.T) {
	var c CountEstimate
	c.SetEstimate(5)
	c.Decrement()
	c.Reset()
	assert.False(t, c.Known())
	assert.Equal(t, "??", c.Display())
	c.SetEstimate(7)
	assert.Equal(t, "7", c.Display())
}
