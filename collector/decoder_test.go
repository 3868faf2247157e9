package collector

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testmeta/go-testmeta/types"
)

func eventLines(t *testing.T, events ...types.Event) string {
	t.Helper()
	var b strings.Builder
	for _, ev := range events {
		data, err := json.Marshal(ev)
		require.NoError(t, err)
		b.Write(data)
		b.WriteByte('\n')
	}
	return b.String()
}

func sessionEvents(t *testing.T, tc testCase) []types.Event {
	t.Helper()
	at := testBase
	events := []types.Event{
		{Kind: types.EventSessionStart, Time: at},
		collectEvent(tc, at),
	}
	for _, s := range []struct {
		stage   types.Stage
		outcome types.Status
	}{
		{types.StageSetup, tc.setup},
		{types.StageCall, tc.call},
		{types.StageTeardown, tc.teardown},
	} {
		if s.outcome == "" {
			continue
		}
		stop := at.Add(100 * time.Millisecond)
		events = append(events,
			types.Event{
				Kind: types.EventStageStart, Time: at,
				NodeID: tc.nodeID, RelPath: tc.relPath, TestCase: tc.testCase,
				Stage: s.stage, Start: at,
			},
			types.Event{
				Kind: types.EventStageReport, Time: stop,
				NodeID: tc.nodeID, RelPath: tc.relPath, TestCase: tc.testCase,
				Stage: s.stage, Outcome: s.outcome, Start: at, Stop: stop,
			},
		)
		at = stop
	}
	events = append(events, types.Event{Kind: types.EventSessionFinish, Time: at, ExitStatus: 0})
	return events
}

func TestDecoderReplay(t *testing.T) {
	c := newTestCollector(t)
	dec := NewDecoder(log.NewLogger(log.DiscardHandler()))

	events := sessionEvents(t, passingTest("test_stream", "tests/test_d.py"))
	stream := eventLines(t, events...)

	delivered, err := dec.Replay(context.Background(), strings.NewReader(stream), c)
	require.NoError(t, err)
	assert.Equal(t, len(events), delivered)

	tm, ok := c.TestByID(types.GenerateTestID("tests/test_d.py", "test_stream"))
	require.True(t, ok)
	assert.Equal(t, types.StatusPassed, tm.Runs[0].Status)
	assert.True(t, c.Session().HasFinished())
}

func TestDecoderSkipsMalformedLines(t *testing.T) {
	c := newTestCollector(t)
	dec := NewDecoder(log.NewLogger(log.DiscardHandler()))

	events := sessionEvents(t, passingTest("test_messy", "tests/test_m.py"))
	stream := "this is not json\n" +
		eventLines(t, events...) +
		"{\"kind\": \"collect\", truncated\n" +
		"\n" // blank lines are fine

	delivered, err := dec.Replay(context.Background(), strings.NewReader(stream), c)
	require.NoError(t, err)
	assert.Equal(t, len(events), delivered)

	_, ok := c.TestByID(types.GenerateTestID("tests/test_m.py", "test_messy"))
	assert.True(t, ok)
}

func TestDecoderStopsOnCancelledContext(t *testing.T) {
	c := newTestCollector(t)
	dec := NewDecoder(log.NewLogger(log.DiscardHandler()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := eventLines(t, sessionEvents(t, passingTest("test_ctx", "tests/test_ctx.py"))...)
	delivered, err := dec.Replay(ctx, strings.NewReader(stream), c)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, delivered)
}

func TestDecoderEmptyStream(t *testing.T) {
	c := newTestCollector(t)
	dec := NewDecoder(nil)

	delivered, err := dec.Replay(context.Background(), strings.NewReader(""), c)
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Empty(t, c.Tests())
}
