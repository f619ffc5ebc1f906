// Package opt provides learning rate schedules for online training.
package opt

import "math"

// Scheduler supplies the learning rate for each training step.
type Scheduler interface {
	// Step advances the schedule by one training step.
	Step()
	// StepWithAccuracy reports the running accuracy at a checkpoint.
	StepWithAccuracy(acc float64)
	GetLR() float32
}

// BaseScheduler provides default implementations for Scheduler.
type BaseScheduler struct{}

func (s BaseScheduler) Step()                        {}
func (s BaseScheduler) StepWithAccuracy(acc float64) {}

// ConstantLR keeps the learning rate fixed.
type ConstantLR struct {
	BaseScheduler
	lr float32
}

func NewConstantLR(lr float32) *ConstantLR {
	return &ConstantLR{lr: lr}
}

func (s *ConstantLR) GetLR() float32 { return s.lr }

// StepLR decays the learning rate by gamma every stepSize steps.
type StepLR struct {
	BaseScheduler
	stepSize int
	gamma    float32
	steps    int
	lr       float32
}

func NewStepLR(initialLR float32, stepSize int, gamma float32) *StepLR {
	return &StepLR{
		stepSize: stepSize,
		gamma:    gamma,
		lr:       initialLR,
	}
}

func (s *StepLR) Step() {
	s.steps++
	if s.stepSize > 0 && s.steps%s.stepSize == 0 {
		s.lr *= s.gamma
	}
}

func (s *StepLR) GetLR() float32 { return s.lr }

// ExponentialLR decays the learning rate by gamma every step.
type ExponentialLR struct {
	BaseScheduler
	gamma float32
	lr    float32
}

func NewExponentialLR(initialLR, gamma float32) *ExponentialLR {
	return &ExponentialLR{
		gamma: gamma,
		lr:    initialLR,
	}
}

func (s *ExponentialLR) Step() { s.lr *= s.gamma }

func (s *ExponentialLR) GetLR() float32 { return s.lr }

// ReduceLROnPlateau reduces the learning rate when the running accuracy has
// stopped improving for patience checkpoints.
type ReduceLROnPlateau struct {
	BaseScheduler
	factor    float32
	patience  int
	threshold float64
	cooldown  int
	minLR     float32
	lr        float32

	bestAcc         float64
	numBadChecks    int
	cooldownCounter int
}

func NewReduceLROnPlateau(initialLR, factor float32, patience int, threshold float64, minLR float32) *ReduceLROnPlateau {
	return &ReduceLROnPlateau{
		factor:    factor,
		patience:  patience,
		threshold: threshold,
		minLR:     minLR,
		lr:        initialLR,
		bestAcc:   math.Inf(-1),
	}
}

// SetCooldown sets the number of checkpoints ignored after a reduction.
func (s *ReduceLROnPlateau) SetCooldown(n int) { s.cooldown = n }

func (s *ReduceLROnPlateau) StepWithAccuracy(acc float64) {
	if s.cooldownCounter > 0 {
		s.cooldownCounter--
		return
	}

	if acc > s.bestAcc+s.threshold {
		s.bestAcc = acc
		s.numBadChecks = 0
	} else {
		s.numBadChecks++
	}

	if s.numBadChecks >= s.patience {
		s.lr = max(s.lr*s.factor, s.minLR)
		s.numBadChecks = 0
		s.cooldownCounter = s.cooldown
	}
}

func (s *ReduceLROnPlateau) GetLR() float32 { return s.lr }
