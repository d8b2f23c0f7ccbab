package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhall/backend/internal/models"
)

func TestGuardFromState(t *testing.T) {
	g := &models.Game{State: "round"}

	c := NewContext(g, nil, time.Now())
	assert.NoError(t, c.GuardFromState(), "absent from_state never guards")

	c = NewContext(g, Params{"from_state": "round"}, time.Now())
	assert.NoError(t, c.GuardFromState())

	c = NewContext(g, Params{"from_state": "intro"}, time.Now())
	assert.True(t, IsNothingToDo(c.GuardFromState()), "stale from_state is a silent no-op")

	c = NewContext(g, Params{"from_state": float64(3)}, time.Now())
	assert.True(t, IsRejection(c.GuardFromState()))
}

func TestIntercomQueue(t *testing.T) {
	c := NewContext(&models.Game{}, nil, time.Now())
	assert.Empty(t, c.Intercoms())
	c.Intercom("gong")
	c.Intercom("reveal")
	assert.Equal(t, []string{"gong", "reveal"}, c.Intercoms())
}

func TestParamsAccessors(t *testing.T) {
	p := Params{
		"id":      float64(42),
		"frac":    float64(1.5),
		"flag":    true,
		"name":    "ANNA",
		"list":    []any{float64(1), float64(2)},
		"badlist": []any{"x"},
	}

	id, err := p.Int64("id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = p.Int64("frac")
	assert.True(t, IsRejection(err), "fractional numbers are not ids")
	_, err = p.Int64("missing")
	assert.True(t, IsRejection(err))
	_, err = p.Int64("name")
	assert.True(t, IsRejection(err))

	flag, err := p.Bool("flag")
	require.NoError(t, err)
	assert.True(t, flag)
	_, err = p.Bool("name")
	assert.True(t, IsRejection(err))

	s, err := p.String("name")
	require.NoError(t, err)
	assert.Equal(t, "ANNA", s)
	_, err = p.String("missing")
	assert.True(t, IsRejection(err))

	opt, err := p.OptString("missing")
	require.NoError(t, err)
	assert.Equal(t, "", opt)
	_, err = p.OptString("flag")
	assert.True(t, IsRejection(err))

	list, err := p.Ints("list")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, list)
	_, err = p.Ints("badlist")
	assert.True(t, IsRejection(err))
	_, err = p.Ints("name")
	assert.True(t, IsRejection(err))
}

func TestErrorOutcomes(t *testing.T) {
	assert.True(t, IsNothingToDo(ErrNothingToDo))
	assert.False(t, IsNothingToDo(Reject("nope")))

	err := Reject("player %q not found", "ANNA")
	assert.True(t, IsRejection(err))
	assert.Equal(t, `player "ANNA" not found`, err.Error())
	assert.False(t, IsRejection(ErrNothingToDo))
}

func TestTimerHelpers(t *testing.T) {
	now := time.Unix(1700000000, 0)

	deadline := Deadline(now, 30*time.Second)
	assert.Equal(t, now.UnixMilli()+30_000, deadline)

	assert.False(t, Lapsed(now, deadline))
	assert.False(t, Lapsed(now, 0), "zero deadline never lapses")
	assert.True(t, Lapsed(now.Add(31*time.Second), deadline))

	assert.Equal(t, int64(30_000), Remaining(now, deadline))
	assert.Equal(t, int64(0), Remaining(now.Add(time.Minute), deadline), "remaining clamps at zero")
}

func TestVariantLookup(t *testing.T) {
	v := &Variant{
		Name:   "demo",
		States: []string{"start", "end"},
		Actions: map[string]Action{
			"next_state": {Run: func(c *Context) error { return nil }},
		},
	}

	_, ok := v.Action("next_state")
	assert.True(t, ok)
	_, ok = v.Action("bogus")
	assert.False(t, ok)

	assert.True(t, v.ValidState("start"))
	assert.False(t, v.ValidState("limbo"))
}
