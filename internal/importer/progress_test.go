package importer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressCadence(t *testing.T) {
	var events []Event
	emit := func(ev Event) { events = append(events, ev) }

	total := 25
	emitStart(emit, total)
	for i := 1; i <= total; i++ {
		emitRowProgress(emit, i, total)
	}

	require.Len(t, events, 4)
	assert.Equal(t, EventStart, events[0].Type)
	assert.Equal(t, total, events[0].Total)
	assert.Equal(t, 10, events[1].Current)
	assert.Equal(t, 20, events[2].Current)
	// The last row always reports, so short tails still complete the bar.
	assert.Equal(t, 25, events[3].Current)
}

func TestProgressShortFile(t *testing.T) {
	var events []Event
	emit := func(ev Event) { events = append(events, ev) }

	emitStart(emit, 3)
	for i := 1; i <= 3; i++ {
		emitRowProgress(emit, i, 3)
	}

	require.Len(t, events, 2)
	assert.Equal(t, EventStart, events[0].Type)
	assert.Equal(t, EventProgress, events[1].Type)
	assert.Equal(t, 3, events[1].Current)
}

func TestNilProgressFuncSafe(t *testing.T) {
	emitStart(nil, 10)
	emitRowProgress(nil, 1, 10)
	emitResult(nil, newImportResult(10))
	EmitError(nil, "boom")
}

func TestImportRunEventSequence(t *testing.T) {
	im, _ := newClientImporter(t)

	var rows [][]string
	for i := 0; i < 12; i++ {
		rows = append(rows, clientRow("Co", "10", "pw", fmt.Sprintf("user-%d", i)))
	}

	var events []Event
	result, err := im.Process(clientHeaders(), rows, ClientImportOptions{DryRun: true}, func(ev Event) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, EventStart, events[0].Type)
	assert.Equal(t, 12, events[0].Total)

	last := events[len(events)-1]
	assert.Equal(t, EventResult, last.Type)
	require.NotNil(t, last.Stats)
	assert.Equal(t, result.Stats, *last.Stats)

	// Everything between start and result is monotonic progress.
	prev := 0
	for _, ev := range events[1 : len(events)-1] {
		assert.Equal(t, EventProgress, ev.Type)
		assert.Greater(t, ev.Current, prev)
		prev = ev.Current
	}
	assert.Equal(t, 12, prev)
}
