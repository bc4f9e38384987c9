package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procflow/engine/internal/enginetest"
	"github.com/procflow/engine/internal/script"
	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/flowsheet"
)

func TestLuaDeclare(t *testing.T) {
	src := `
stream("feed", {
    pressure = {value = 50, unit = "bara"},
    temperature = 30,
})
separator("sep", {}, "feed")
compressor("comp", {pressure = {100, "bara"}}, "sep")
`
	fake := enginetest.New()
	b := flowsheet.NewBuilder(fake)
	require.NoError(t, script.NewLuaEnv().Declare(src, b))

	c, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []api.Name{"feed", "sep", "comp"}, c.Order())

	feed, err := c.Lookup("feed")
	require.NoError(t, err)
	assert.Equal(t, 50.0, feed.Config[api.ParamPressure].Value)
	assert.Equal(t, "bara", feed.Config[api.ParamPressure].Unit)
	assert.Equal(t, 30.0, feed.Config[api.ParamTemperature].Value)

	comp, err := c.Lookup("comp")
	require.NoError(t, err)
	assert.Equal(t, 100.0, comp.Config[api.ParamPressure].Value)
	assert.Equal(t, "bara", comp.Config[api.ParamPressure].Unit)
}

func TestLuaDeclareWithLogic(t *testing.T) {
	src := `
stream("feed", {pressure = 50})
local stages = {"stage1", "stage2"}
local prev = "feed"
for _, name in ipairs(stages) do
    compressor(name, {pressure = 100}, prev)
    prev = name
end
`
	b := flowsheet.NewBuilder(enginetest.New())
	require.NoError(t, script.NewLuaEnv().Declare(src, b))

	c, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []api.Name{"feed", "stage1", "stage2"}, c.Order())
}

func TestLuaOverride(t *testing.T) {
	src := `
stream("feed", {pressure = 50})
override("feed", "pressure", 65, "bara")
`
	b := flowsheet.NewBuilder(enginetest.New())
	require.NoError(t, script.NewLuaEnv().Declare(src, b))

	c, err := b.Build()
	require.NoError(t, err)
	feed, err := c.Lookup("feed")
	require.NoError(t, err)
	assert.Equal(t, 65.0, feed.Config[api.ParamPressure].Value)
}

func TestLuaSyntaxError(t *testing.T) {
	b := flowsheet.NewBuilder(enginetest.New())
	err := script.NewLuaEnv().Declare(`stream("feed"`, b)
	assert.ErrorIs(t, err, script.ErrLuaLoad)
}

func TestLuaBadConfig(t *testing.T) {
	b := flowsheet.NewBuilder(enginetest.New())
	err := script.NewLuaEnv().Declare(
		`stream("feed", {pressure = "high"})`, b,
	)
	assert.ErrorIs(t, err, script.ErrLuaExecution)
}

func TestLuaDeclarationError(t *testing.T) {
	src := `
stream("feed", {})
stream("feed", {})
`
	b := flowsheet.NewBuilder(enginetest.New())
	err := script.NewLuaEnv().Declare(src, b)
	assert.ErrorIs(t, err, flowsheet.ErrNameConflict)
}

func TestLuaSandbox(t *testing.T) {
	b := flowsheet.NewBuilder(enginetest.New())
	err := script.NewLuaEnv().Declare(`os.exit(1)`, b)
	assert.ErrorIs(t, err, script.ErrLuaExecution)
}
