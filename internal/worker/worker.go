// Package worker drives one UCI engine child process through its
// handshake and search lifecycle, exposing a single synchronous Analyze
// operation to its caller (normally an enginepool.Pool).
package worker

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hailam/puzzleforge/internal/analysis"
	"github.com/hailam/puzzleforge/internal/board"
	"github.com/hailam/puzzleforge/internal/engineio"
	"github.com/hailam/puzzleforge/internal/filter"
	"github.com/hailam/puzzleforge/internal/protocol"
)

// State names the worker's position in its handshake/search lifecycle.
type State int

const (
	StateSpawned State = iota
	StateInitialized
	StateReady
	StateSearching
	StateBroken
)

// BrokenError wraps the underlying I/O failure that put a worker into the
// broken state, so callers can distinguish it from a DSL or config error.
type BrokenError struct {
	Err error
}

func (e *BrokenError) Error() string { return fmt.Sprintf("worker: broken: %v", e.Err) }
func (e *BrokenError) Unwrap() error { return e.Err }

// FatalError signals that a worker failed to recover after its one
// automatic revival attempt and must be removed from the pool.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("worker: fatal: %v", e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

// Worker owns one engine child process and the state machine driving it.
type Worker struct {
	descriptor *protocol.Descriptor
	conn       *engineio.Conn
	state      State
	stopping   atomic.Bool
}

// Spawn starts a fresh engine process and performs the UCI handshake and
// protocol setup sequence, leaving the worker in StateReady.
func Spawn(d *protocol.Descriptor) (*Worker, error) {
	w := &Worker{descriptor: d}
	if err := w.spawnAndHandshake(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Worker) spawnAndHandshake() error {
	conn, err := engineio.Spawn(w.descriptor.Path)
	if err != nil {
		return err
	}
	w.conn = conn
	w.state = StateSpawned

	if err := conn.Send("uci"); err != nil {
		return err
	}
	if err := w.readUntil("uciok"); err != nil {
		return err
	}
	w.state = StateInitialized

	setupLines := w.descriptor.Setup
	if w.descriptor.WDLOption != "" {
		setupLines = append(append([]string{}, setupLines...), w.descriptor.WDLOption)
	}
	for _, line := range setupLines {
		if err := conn.Send(line); err != nil {
			return err
		}
		if err := conn.Send(w.descriptor.IsReadyLine); err != nil {
			return err
		}
		if err := w.readUntil(w.descriptor.ReadyOkToken); err != nil {
			return err
		}
	}
	w.state = StateReady
	return nil
}

func (w *Worker) readUntil(token string) error {
	for {
		line, ok := w.conn.ReadLine()
		if !ok {
			if err := w.conn.Err(); err != nil {
				return err
			}
			return fmt.Errorf("worker: engine closed stdout before %q", token)
		}
		if strings.TrimSpace(line) == token {
			return nil
		}
	}
}

// SearchParams bundles the per-search knobs a Descriptor's templates are
// applied to: the node and wall-clock caps every search carries, plus the
// optional MultiPV line count and Chess960 position-notation toggle.
type SearchParams struct {
	NodesCap   int64
	DurationMs int64

	// MultiPV requests that many PV lines from the engine via the
	// descriptor's MultiPVOption. Zero or one leaves the engine at its
	// own default (normally a single line).
	MultiPV int

	// Chess960 marks pos as using Chess960 castling/start notation, so
	// the descriptor's SetChess960 toggle (if any) is sent before the
	// position is set.
	Chess960 bool
}

// Analyze runs one synchronous search on pos, returning the Analysis built
// from the engine's info/bestmove lines. The accelerate filter is consulted
// after every info line that advances the analysis; once it returns false
// and the position's caps aren't yet exhausted, Analyze sends "stop" and
// completes with the last known Analysis rather than waiting out the caps.
func (w *Worker) Analyze(pos *board.Position, accelerate *filter.Node, params SearchParams) (*analysis.Analysis, error) {
	if w.state == StateBroken {
		if err := w.spawnAndHandshake(); err != nil {
			w.state = StateBroken
			return nil, &FatalError{Err: err}
		}
	}

	a, err := w.runSearch(pos, accelerate, params)
	if err == nil {
		return a, nil
	}

	w.state = StateBroken
	w.conn.Close()

	// One automatic revival per analyze (§4.1).
	if respawnErr := w.spawnAndHandshake(); respawnErr != nil {
		w.state = StateBroken
		return nil, &FatalError{Err: fmt.Errorf("revival failed after %v: %w", err, respawnErr)}
	}
	a, err = w.runSearch(pos, accelerate, params)
	if err != nil {
		w.state = StateBroken
		return nil, &FatalError{Err: err}
	}
	return a, nil
}

func (w *Worker) runSearch(pos *board.Position, accelerate *filter.Node, params SearchParams) (*analysis.Analysis, error) {
	w.state = StateSearching
	defer func() {
		if w.state == StateSearching {
			w.state = StateReady
		}
	}()

	if err := w.conn.Send("ucinewgame"); err != nil {
		return nil, &BrokenError{Err: err}
	}

	if params.Chess960 && w.descriptor.SetChess960 != "" {
		if err := w.conn.Send(fmt.Sprintf(w.descriptor.SetChess960, "true")); err != nil {
			return nil, &BrokenError{Err: err}
		}
	}

	if params.MultiPV > 1 && w.descriptor.MultiPVOption != "" {
		if err := w.conn.Send(fmt.Sprintf(w.descriptor.MultiPVOption, params.MultiPV)); err != nil {
			return nil, &BrokenError{Err: err}
		}
	}

	if err := w.conn.Send(fmt.Sprintf(w.descriptor.SetPosition, pos.ToFEN())); err != nil {
		return nil, &BrokenError{Err: err}
	}

	goLine := "go " + fmt.Sprintf(w.descriptor.NodesOption, params.NodesCap) + " " + fmt.Sprintf(w.descriptor.DurationOption, params.DurationMs)
	if err := w.conn.Send(goLine); err != nil {
		return nil, &BrokenError{Err: err}
	}

	deadline := time.Now().Add(time.Duration(params.DurationMs) * time.Millisecond)
	result := analysis.New()
	stopSent := false

	for {
		line, ok := w.conn.ReadLine()
		if !ok {
			if err := w.conn.Err(); err != nil {
				return nil, &BrokenError{Err: err}
			}
			return nil, &BrokenError{Err: fmt.Errorf("engine closed stdout mid-search")}
		}

		result.AppendRaw(line)

		if strings.HasPrefix(line, "bestmove") {
			bm := analysis.ParseBestMove(line)
			if bm != "" && result.IsEmpty() {
				return nil, &BrokenError{Err: fmt.Errorf("bestmove with no preceding info lines")}
			}
			return result, nil
		}

		if strings.HasPrefix(line, "info") {
			pv, parsedOK := analysis.ParseInfoLine(line)
			if !parsedOK {
				continue
			}
			result.Update(pv)

			if !stopSent && accelerate != nil && !accelerate.Evaluate(result) && time.Now().Before(deadline) && pv.Nodes < params.NodesCap {
				if err := w.conn.Send("stop"); err != nil {
					return nil, &BrokenError{Err: err}
				}
				stopSent = true
			}
		}
	}
}

const gracePeriod = 2 * time.Second

// Close terminates the worker's child process.
func (w *Worker) Close() error {
	return w.conn.Close()
}

// State reports the worker's current lifecycle state, mostly for tests and
// pool diagnostics.
func (w *Worker) State() State {
	return w.state
}
