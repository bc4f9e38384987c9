package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procflow/engine/pkg/api"
)

func TestValidateStream(t *testing.T) {
	eq := api.NewEquipment("feed", api.KindStream, api.Config{
		api.ParamPressure:    {Value: 50, Unit: "bara"},
		api.ParamTemperature: {Value: 30, Unit: "C"},
	})

	assert.NoError(t, eq.Validate())
}

func TestValidateEmptyName(t *testing.T) {
	eq := api.NewEquipment("", api.KindStream, nil)

	err := eq.Validate()
	assert.ErrorIs(t, err, api.ErrEmptyName)
}

func TestValidateUnknownKind(t *testing.T) {
	eq := api.NewEquipment("weird", api.Kind("reboiler"), nil)

	err := eq.Validate()
	assert.ErrorIs(t, err, api.ErrUnknownKind)
	assert.Contains(t, err.Error(), "weird")
}

func TestValidateUnrecognizedParam(t *testing.T) {
	eq := api.NewEquipment("sep", api.KindSeparator, api.Config{
		api.ParamDuty: {Value: 100, Unit: "kW"},
	})

	err := eq.Validate()
	assert.ErrorIs(t, err, api.ErrConfiguration)
	assert.Contains(t, err.Error(), "duty")
	assert.Contains(t, err.Error(), "sep")
}

func TestAttachOnce(t *testing.T) {
	eq := api.NewEquipment("feed", api.KindStream, nil)

	require.NoError(t, eq.Attach())
	err := eq.Attach()
	assert.ErrorIs(t, err, api.ErrAlreadyAttached)

	eq.Detach()
	assert.NoError(t, eq.Attach())
}

func TestParamsFor(t *testing.T) {
	params, ok := api.ParamsFor(api.KindCompressor)
	require.True(t, ok)
	assert.Contains(t, params, api.ParamPressure)
	assert.Contains(t, params, api.ParamEfficiency)

	_, ok = api.ParamsFor(api.Kind("distillation"))
	assert.False(t, ok)
}

func TestKindsStable(t *testing.T) {
	kinds := api.Kinds()
	require.NotEmpty(t, kinds)
	assert.Equal(t, api.KindStream, kinds[0])
	assert.Equal(t, kinds, api.Kinds())
}
