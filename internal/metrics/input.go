package metrics

import (
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// InputLoad is the mean absolute input per observation, the average
// meal intake or injected current a stimulus delivered.
type InputLoad struct {
	name    string
	sum     float64
	samples int
}

func NewInputLoad() *InputLoad {
	return &InputLoad{
		name: "input_load",
	}
}

func (c *InputLoad) Name() string {
	return c.name
}

func (c *InputLoad) Observe(x dynamo.State, u dynamo.Input, t float64) {
	for _, val := range u {
		c.sum += math.Abs(val)
	}
	c.samples++
}

func (c *InputLoad) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *InputLoad) Reset() {
	c.sum = 0
	c.samples = 0
}
