package detectors

import (
	"context"

	"github.com/vigil-sec/vigil/pkg/types"
)

// Detector is one weighted unit of the admission sweep. Evaluate never
// returns an error: internal failures degrade to permissive results and the
// pipeline always ends up with a Decision.
//
//go:generate mockery --name=Detector --dir=. --output=../../mocks --filename=detector_mock.go --case=underscore --with-expecter
type Detector interface {
	Name() string
	Weight() float64
	Evaluate(ctx context.Context, signal *types.RequestSignal) *types.CheckResult
}
