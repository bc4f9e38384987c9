package flowsheet_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procflow/engine/internal/enginetest"
	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/flowsheet"
)

func chainContext(t *testing.T, fake *enginetest.Fake) *flowsheet.Context {
	t.Helper()
	c := flowsheet.New(fake)
	require.NoError(t, c.Add(
		api.NewEquipment("comp", api.KindCompressor, api.Config{
			api.ParamPressure: {Value: 100, Unit: "bara"},
		}, "sep"),
	))
	require.NoError(t, c.Add(
		api.NewEquipment("sep", api.KindSeparator, nil, "feed"),
	))
	require.NoError(t, c.Add(
		api.NewEquipment("feed", api.KindStream, api.Config{
			api.ParamPressure:    {Value: 50, Unit: "bara"},
			api.ParamTemperature: {Value: 30, Unit: "C"},
		}),
	))
	return c
}

func TestRunRegistersInDependencyOrder(t *testing.T) {
	fake := enginetest.New()
	c := chainContext(t, fake)

	report, err := c.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, []api.Name{"feed", "sep", "comp"}, fake.Registered())
	assert.Equal(t, api.StatusCompleted, c.Status())
	assert.True(t, report.Succeeded())
	assert.Len(t, report.Results, 3)
	assert.NotEmpty(t, report.RunID)
}

func TestRunAttachesResults(t *testing.T) {
	fake := enginetest.New()
	fake.Docs["comp"] = []byte(
		`{"equipment":"comp","power":{"value":1250.5,"unit":"kW"}}`,
	)
	c := chainContext(t, fake)

	report, err := c.Run(t.Context())
	require.NoError(t, err)

	rec := report.Result("comp")
	require.NotNil(t, rec)
	v, ok := rec.Float("power.value")
	require.True(t, ok)
	assert.Equal(t, 1250.5, v)
}

func TestAddDuplicateName(t *testing.T) {
	c := flowsheet.New(enginetest.New())
	require.NoError(t, c.Add(api.NewEquipment("feed", api.KindStream, nil)))

	err := c.Add(api.NewEquipment("feed", api.KindSeparator, nil))
	assert.ErrorIs(t, err, flowsheet.ErrNameConflict)
}

func TestAddRejectsBadConfig(t *testing.T) {
	c := flowsheet.New(enginetest.New())

	err := c.Add(api.NewEquipment("v", api.KindValve, api.Config{
		api.ParamDuty: {Value: 1},
	}))
	assert.ErrorIs(t, err, api.ErrConfiguration)
}

func TestAddAfterResolveRejected(t *testing.T) {
	c := flowsheet.New(enginetest.New())
	require.NoError(t, c.Add(api.NewEquipment("feed", api.KindStream, nil)))
	require.NoError(t, c.Resolve())

	err := c.Add(api.NewEquipment("sep", api.KindSeparator, nil, "feed"))
	assert.ErrorIs(t, err, flowsheet.ErrContextNotOpen)
}

func TestEquipmentBelongsToOneContext(t *testing.T) {
	first := flowsheet.New(enginetest.New())
	second := flowsheet.New(enginetest.New())
	feed := api.NewEquipment("feed", api.KindStream, nil)

	require.NoError(t, first.Add(feed))
	err := second.Add(feed)
	assert.ErrorIs(t, err, api.ErrAlreadyAttached)

	// Clearing the owner releases the equipment
	first.Clear()
	assert.NoError(t, second.Add(feed))
}

func TestResolveIdempotent(t *testing.T) {
	c := chainContext(t, enginetest.New())

	require.NoError(t, c.Resolve())
	order := c.Order()
	require.NoError(t, c.Resolve())

	assert.Equal(t, order, c.Order())
	assert.Equal(t, api.StatusReady, c.Status())
}

func TestResolveCycleFatal(t *testing.T) {
	c := flowsheet.New(enginetest.New())
	require.NoError(t, c.Add(api.NewEquipment("a", api.KindValve, nil, "b")))
	require.NoError(t, c.Add(api.NewEquipment("b", api.KindValve, nil, "a")))

	err := c.Resolve()
	assert.ErrorIs(t, err, flowsheet.ErrCyclicDependency)
	assert.Equal(t, api.StatusOpen, c.Status())
}

func TestRunTwiceRejected(t *testing.T) {
	c := chainContext(t, enginetest.New())

	_, err := c.Run(t.Context())
	require.NoError(t, err)

	_, err = c.Run(t.Context())
	assert.ErrorIs(t, err, flowsheet.ErrContextNotReady)
}

func TestReopenAllowsRerun(t *testing.T) {
	fake := enginetest.New()
	c := chainContext(t, fake)

	first, err := c.Run(t.Context())
	require.NoError(t, err)

	require.NoError(t, c.Reopen())
	second, err := c.Run(t.Context())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 2, fake.Executions())
	// Each run clears the engine, so equipment is not duplicated
	assert.Equal(t, []api.Name{"feed", "sep", "comp"}, fake.Registered())
}

func TestReopenRequiresFinishedRun(t *testing.T) {
	c := chainContext(t, enginetest.New())

	err := c.Reopen()
	assert.ErrorIs(t, err, flowsheet.ErrNotFinished)
}

func TestRunFailureDuringRegistration(t *testing.T) {
	fake := enginetest.New()
	cause := errors.New("invalid fluid composition")
	fake.FailRegister["sep"] = cause
	c := chainContext(t, fake)

	report, err := c.Run(t.Context())
	require.Error(t, err)

	var execErr *flowsheet.EngineExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, api.Name("sep"), execErr.Equipment)
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, api.StatusFailed, c.Status())
	require.NotNil(t, report)
	assert.Equal(t, api.StatusFailed, report.Status)
	assert.Contains(t, report.Error, "sep")
}

func TestRunFailureDuringExecute(t *testing.T) {
	fake := enginetest.New()
	fake.FailExecute = errors.New("did not converge")
	c := chainContext(t, fake)

	_, err := c.Run(t.Context())

	var execErr *flowsheet.EngineExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Empty(t, execErr.Equipment)
	assert.Equal(t, api.StatusFailed, c.Status())
}

func TestRunWithoutAdapter(t *testing.T) {
	c := flowsheet.New(nil)
	require.NoError(t, c.Add(api.NewEquipment("feed", api.KindStream, nil)))

	_, err := c.Run(t.Context())
	assert.ErrorIs(t, err, flowsheet.ErrNoAdapter)
}

func TestClearFromAnyState(t *testing.T) {
	fake := enginetest.New()
	fake.FailExecute = errors.New("boom")
	c := chainContext(t, fake)

	_, err := c.Run(t.Context())
	require.Error(t, err)
	require.Equal(t, api.StatusFailed, c.Status())

	c.Clear()
	assert.Equal(t, api.StatusOpen, c.Status())
	assert.Nil(t, c.Report())
	_, err = c.Lookup("feed")
	assert.ErrorIs(t, err, flowsheet.ErrUnknownReference)
}

func TestWithClearsOnError(t *testing.T) {
	fake := enginetest.New()
	fake.FailExecute = errors.New("boom")
	var captured *flowsheet.Context

	err := flowsheet.With(fake, func(c *flowsheet.Context) error {
		captured = c
		if err := c.Add(
			api.NewEquipment("feed", api.KindStream, nil),
		); err != nil {
			return err
		}
		_, err := c.Run(t.Context())
		return err
	})

	require.Error(t, err)
	assert.Equal(t, api.StatusOpen, captured.Status())
}

func TestWithClearsOnPanic(t *testing.T) {
	var captured *flowsheet.Context

	assert.Panics(t, func() {
		_ = flowsheet.With(enginetest.New(), func(c *flowsheet.Context) error {
			captured = c
			require.NoError(t, c.Add(
				api.NewEquipment("feed", api.KindStream, nil),
			))
			panic("mid-declaration failure")
		})
	})

	assert.Equal(t, api.StatusOpen, captured.Status())
}
