package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/prepzone/internal/attempt"
)

func TestGrade(t *testing.T) {
	p := mustPack(t)

	res := Grade(p, map[string]attempt.Answer{
		"a1": attempt.ChoiceAnswer("y"),      // correct, +4
		"a2": attempt.NumericAnswer(1.55),    // within tolerance, +2
		"b1": attempt.ChoiceAnswer("r", "p"), // order does not matter, +4
		"b2": attempt.NumericAnswer(8),       // wrong, -0
	})

	assert.Equal(t, 3, res.Correct)
	assert.Equal(t, 1, res.Incorrect)
	assert.Equal(t, 0, res.Unattempted)
	assert.Equal(t, 10.0, res.Score)
	assert.Equal(t, 13.0, res.MaxScore)
	assert.InDelta(t, 76.92, res.Percent(), 0.01)
	assert.Len(t, res.Questions, 4)
	assert.Equal(t, "p,r", res.Questions[2].Expected)
	assert.Equal(t, "r,p", res.Questions[2].Given)
}

func TestGrade_NegativeMarking(t *testing.T) {
	p := mustPack(t)

	res := Grade(p, map[string]attempt.Answer{
		"a1": attempt.ChoiceAnswer("x"), // wrong, -1
		"b1": attempt.ChoiceAnswer("p"), // partial counts as wrong, -2
	})

	assert.Equal(t, 0, res.Correct)
	assert.Equal(t, 2, res.Incorrect)
	assert.Equal(t, 2, res.Unattempted)
	assert.Equal(t, -3.0, res.Score)
	assert.Equal(t, OutcomeUnattempted, res.Questions[1].Outcome)
	assert.Equal(t, -1.0, res.Questions[0].Awarded)
}

func TestGrade_Empty(t *testing.T) {
	res := Grade(mustPack(t), nil)
	assert.Equal(t, 4, res.Unattempted)
	assert.Zero(t, res.Score)
}

func TestResultPercent_ZeroMax(t *testing.T) {
	r := &Result{}
	assert.Zero(t, r.Percent())
}
