package experiment

import (
	"go.uber.org/zap"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// Progress logs how far a run has got at every tenth of its duration.
type Progress struct {
	log      *zap.Logger
	duration float64
	next     int
}

func NewProgress(log *zap.Logger, duration float64) *Progress {
	return &Progress{log: log, duration: duration, next: 1}
}

func (p *Progress) OnStep(x dynamo.State, _ dynamo.Input, t float64) {
	if t == 0 {
		p.next = 1
	}
	if p.duration <= 0 || p.next > 9 {
		return
	}
	if t < p.duration*float64(p.next)/10 {
		return
	}
	p.log.Debug("progress",
		zap.Int("percent", p.next*10),
		zap.Float64("t", t),
		zap.Float64("norm", x.Norm()),
	)
	for p.next <= 9 && t >= p.duration*float64(p.next)/10 {
		p.next++
	}
}
