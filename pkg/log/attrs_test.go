package log_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/log"
)

type errStub string

func TestEquipment(t *testing.T) {
	attr := log.Equipment(api.Name("feed"))
	assertAttrEqual(t, attr, "equipment", "feed")
}

func TestKind(t *testing.T) {
	attr := log.Kind(api.KindCompressor)
	assertAttrEqual(t, attr, "kind", "compressor")
}

func TestRunID(t *testing.T) {
	attr := log.RunID("run-123")
	assertAttrEqual(t, attr, "run_id", "run-123")
}

func TestStatus(t *testing.T) {
	attr := log.Status(api.StatusCompleted)
	assertAttrEqual(t, attr, "status", "completed")
}

func TestError(t *testing.T) {
	attr := log.Error(nil)
	assertAttrEqual(t, attr, "error", "")

	attr = log.Error(errStub("boom"))
	assertAttrEqual(t, attr, "error", "boom")
}

func (e errStub) Error() string { return string(e) }

func assertAttrEqual(t *testing.T, attr slog.Attr, key, value string) {
	t.Helper()
	assert.Equal(t, key, attr.Key)
	assert.Equal(t, value, attr.Value.String())
}
