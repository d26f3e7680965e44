package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutine_CloneIsDeep(t *testing.T) {
	r := &Routine{
		Morning: []RoutineStep{{Name: "Cleanser", Tips: []string{"lukewarm water"}}},
	}
	c := r.Clone()
	c.Morning[0].Tips[0] = "changed"
	c.Morning[0].Name = "Other"

	assert.Equal(t, "lukewarm water", r.Morning[0].Tips[0])
	assert.Equal(t, "Cleanser", r.Morning[0].Name)
}

func TestRoutine_StepsAndSetSteps(t *testing.T) {
	r := &Routine{}
	r.SetSteps(BucketEvening, []RoutineStep{{Name: "Retinol"}})
	assert.Len(t, r.Steps(BucketEvening), 1)
	assert.Empty(t, r.Steps(BucketMorning))
	assert.Equal(t, 1, r.StepCount())

	var nilRoutine *Routine
	assert.Nil(t, nilRoutine.Steps(BucketMorning))
	assert.Equal(t, 0, nilRoutine.StepCount())
}

func TestParseTimeOfDay(t *testing.T) {
	tod, ok := ParseTimeOfDay(" Night ")
	assert.True(t, ok)
	assert.Equal(t, TimeEvening, tod)

	_, ok = ParseTimeOfDay("lunch")
	assert.False(t, ok)
}

func TestDecodingFailure_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("regenerate: %w", &DecodingFailure{Raw: "garbage", Err: errors.New("no tier")})
	assert.ErrorIs(t, err, ErrDecoding)

	var df *DecodingFailure
	assert.True(t, errors.As(err, &df))
	assert.Equal(t, "garbage", df.Raw)
}
