package models

import (
	"fmt"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// paramSet maps parameter names onto model fields.
type paramSet map[string]*float64

func (p paramSet) values() map[string]float64 {
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = *v
	}
	return out
}

func (p paramSet) set(name string, value float64) error {
	ptr, ok := p[name]
	if !ok {
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, name)
	}
	*ptr = value
	return nil
}

func boolParam(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
