package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewTrajectoryPlot(t *testing.T) {
	assert := assert.New(t)

	times := []float64{0, 0.1, 0.2}
	states := mat.NewDense(3, 12, nil)

	plt, err := NewTrajectoryPlot("impedance", times, states, 0, 6)
	assert.NotNil(plt)
	assert.NoError(err)

	plt, err = NewTrajectoryPlot("impedance", times, nil, 0)
	assert.Nil(plt)
	assert.Error(err)

	plt, err = NewTrajectoryPlot("impedance", times[:2], states, 0)
	assert.Nil(plt)
	assert.Error(err)

	plt, err = NewTrajectoryPlot("impedance", times, states)
	assert.Nil(plt)
	assert.Error(err)

	plt, err = NewTrajectoryPlot("impedance", times, states, 12)
	assert.Nil(plt)
	assert.Error(err)
}

func TestLabel(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("x", label(0))
	assert.Equal("wz", label(11))
	assert.Equal("x12", label(12))
}
