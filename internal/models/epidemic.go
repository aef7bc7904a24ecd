package models

import "github.com/san-kum/biodyn/internal/dynamo"

// SIR is the mass-action epidemic model.
//
//	dS/dt = -beta S I
//	dI/dt =  beta S I - gamma I
//	dR/dt =  gamma I
type SIR struct {
	Beta, Gamma float64
	S0, I0      float64
}

func NewSIR() *SIR {
	return &SIR{Beta: 0.01, Gamma: 0.1, S0: 99, I0: 1}
}

func (m *SIR) StateDim() int              { return 3 }
func (m *SIR) InputDim() int              { return 0 }
func (m *SIR) Labels() []string           { return []string{"S", "I", "R"} }
func (m *SIR) DefaultState() dynamo.State { return dynamo.State{m.S0, m.I0, 0} }

func (m *SIR) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	s, i := x[0], x[1]
	infection := m.Beta * s * i
	recovery := m.Gamma * i
	return dynamo.State{-infection, infection - recovery, recovery}
}

// Invariant is the total population S + I + R.
func (m *SIR) Invariant(x dynamo.State) float64 { return x[0] + x[1] + x[2] }

func (m *SIR) params() paramSet {
	return paramSet{"beta": &m.Beta, "gamma": &m.Gamma, "s0": &m.S0, "i0": &m.I0}
}

func (m *SIR) GetParams() map[string]float64         { return m.params().values() }
func (m *SIR) SetParam(name string, v float64) error { return m.params().set(name, v) }

// SEIR adds a latent class with frequency-dependent transmission.
//
//	dS/dt = -beta S I / N
//	dE/dt =  beta S I / N - epsilon E
//	dI/dt =  epsilon E - gamma I
//	dR/dt =  gamma I
//
// epsilon and gamma are the inverses of the latency and infectious periods.
type SEIR struct {
	Beta     float64
	Latency  float64
	Infected float64
	S0, E0   float64
}

func NewSEIR() *SEIR {
	return &SEIR{Beta: 1.0, Latency: 2.0, Infected: 7.4, S0: 99, E0: 1}
}

func (m *SEIR) StateDim() int              { return 4 }
func (m *SEIR) InputDim() int              { return 0 }
func (m *SEIR) Labels() []string           { return []string{"S", "E", "I", "R"} }
func (m *SEIR) DefaultState() dynamo.State { return dynamo.State{m.S0, m.E0, 0, 0} }

func (m *SEIR) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	s, e, i, r := x[0], x[1], x[2], x[3]
	n := s + e + i + r
	if n == 0 {
		return dynamo.State{0, 0, 0, 0}
	}
	eps, gamma := 1/m.Latency, 1/m.Infected
	infection := m.Beta * s * i / n
	return dynamo.State{
		-infection,
		infection - eps*e,
		eps*e - gamma*i,
		gamma * i,
	}
}

func (m *SEIR) Invariant(x dynamo.State) float64 { return x[0] + x[1] + x[2] + x[3] }

func (m *SEIR) params() paramSet {
	return paramSet{
		"beta": &m.Beta, "latency": &m.Latency, "infectious": &m.Infected,
		"s0": &m.S0, "e0": &m.E0,
	}
}

func (m *SEIR) GetParams() map[string]float64         { return m.params().values() }
func (m *SEIR) SetParam(name string, v float64) error { return m.params().set(name, v) }
