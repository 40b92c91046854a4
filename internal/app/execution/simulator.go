package execution

import (
	"code_assessment/internal/domain/model"
	"context"
	"math/rand/v2"
	"time"
)

// Simulator is the default Executor. It never compiles anything: output is
// derived from keywords in the source text and the supplied input.
type Simulator struct {
	minDelay time.Duration
	maxDelay time.Duration
}

// NewSimulator returns a Simulator that pauses a uniformly random duration
// in [minDelay, maxDelay] per execution. Zero disables the pause.
func NewSimulator(minDelay, maxDelay time.Duration) *Simulator {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Simulator{minDelay: minDelay, maxDelay: maxDelay}
}

func (s *Simulator) Validate(code string, lang model.Language) error {
	return ValidateCode(code, lang)
}

func (s *Simulator) Execute(ctx context.Context, code string, lang model.Language, input string) (string, error) {
	if err := s.pause(ctx); err != nil {
		return "", err
	}
	return simulateOutput(code, input)
}

func (s *Simulator) pause(ctx context.Context) error {
	d := s.minDelay
	if s.maxDelay > s.minDelay {
		d += rand.N(s.maxDelay - s.minDelay + 1)
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
