package collector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testmeta/go-testmeta/metrics"
	"github.com/testmeta/go-testmeta/types"
)

// maxEventLineSize bounds a single NDJSON line; long failure
// representations can carry whole tracebacks.
const maxEventLineSize = 4 * 1024 * 1024

// Decoder replays an NDJSON lifecycle-event stream into a collector. Each
// line is one JSON-encoded types.Event; lines that fail to decode are
// counted and skipped, matching the ingestion path's drop-on-error policy.
type Decoder struct {
	log log.Logger
}

// NewDecoder creates a decoder. A nil logger falls back to the default
// root logger.
func NewDecoder(logger log.Logger) *Decoder {
	if logger == nil {
		logger = log.New()
	}
	return &Decoder{log: logger}
}

// Replay feeds every decodable event from r into c, in stream order. It
// returns the number of events delivered. A read error or a cancelled
// context ends the replay early; whatever was ingested up to that point
// remains in the collector.
func (d *Decoder) Replay(ctx context.Context, r io.Reader, c *Collector) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEventLineSize)

	delivered := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var ev types.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			d.log.Debug("Skipping undecodable event line", "err", err)
			metrics.RecordDroppedEvent("undecodable")
			continue
		}

		c.HandleEvent(ev)
		delivered++
	}
	if err := scanner.Err(); err != nil {
		return delivered, err
	}
	return delivered, nil
}
