package stimulus

import "github.com/san-kum/biodyn/internal/dynamo"

type None struct {
	dim int
}

func NewNone(dim int) *None {
	return &None{dim: dim}
}

func (n *None) Compute(x dynamo.State, t float64) dynamo.Input {
	return make(dynamo.Input, n.dim)
}

type Constant struct {
	values dynamo.Input
}

func NewConstant(values ...float64) *Constant {
	return &Constant{values: append(dynamo.Input(nil), values...)}
}

func (c *Constant) Compute(x dynamo.State, t float64) dynamo.Input {
	out := make(dynamo.Input, len(c.values))
	copy(out, c.values)
	return out
}
