package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageError(t *testing.T) {
	err := Errorf(StageTemplate, "High", ErrEmptyClass, "no training samples")
	assert.Equal(t, "template: empty class error [High]: no training samples", err.Error())
	assert.ErrorIs(t, err, ErrEmptyClass)
	assert.NotErrorIs(t, err, ErrDegenerateVector)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageTemplate, se.Stage)
	assert.Equal(t, "High", se.Entity)

	bare := &StageError{Stage: StageSurvival, Kind: ErrDegenerateGroups}
	assert.Equal(t, "survival: degenerate groups error", bare.Error())
}

func TestMatrix(t *testing.T) {
	m, err := FromSlice([][]float64{{1, 2, 3}, {4, math.NaN(), 6}})
	require.NoError(t, err)
	assert.Equal(t, 2, m.R)
	assert.Equal(t, 3, m.C)
	assert.Equal(t, 6.0, m.At(1, 2))
	assert.Equal(t, []float64{1, 2, 3}, m.Row(0))
	assert.Equal(t, []float64{3, 6}, m.Col(2))
	assert.Equal(t, 1, m.CountNaN())

	tr := m.Transpose()
	assert.Equal(t, 3, tr.R)
	assert.Equal(t, 4.0, tr.At(0, 1))

	sub := m.SelectCols([]int{2, 0})
	assert.Equal(t, []float64{3, 1}, sub.Row(0))
	rows := m.SelectRows([]int{1})
	assert.Equal(t, 1, rows.R)
	assert.Equal(t, 4.0, rows.At(0, 0))

	c := m.Clone()
	c.Set(0, 0, 10)
	assert.Equal(t, 1.0, m.At(0, 0))

	d := m.Dense()
	r, cols := d.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, cols)
	assert.Equal(t, 2.0, d.At(0, 1))

	_, err = FromSlice([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}
