// Package protocol loads the Engine Protocol descriptor: the TOML document
// that tells a worker how to talk UCI to one particular engine binary.
package protocol

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Descriptor is the wire-level contract between a worker and an engine
// executable: where to find it, how to bring it up, and the literal line
// templates used to set position, caps, and multipv.
type Descriptor struct {
	Name  string   `toml:"name"`
	Path  string   `toml:"path"`
	Setup []string `toml:"setup"`

	IsReadyLine  string `toml:"isready"`
	ReadyOkToken string `toml:"readyok"`

	// SetPosition is a fmt-style template applied to a FEN string, e.g.
	// "position fen %s".
	SetPosition string `toml:"setPosition"`
	// SetChess960 is a fmt-style template applied to "true" and sent as its
	// own line before the SetPosition line when Chess960 mode is requested;
	// when empty, no such line is sent.
	SetChess960 string `toml:"setChess960"`

	// NodesOption and DurationOption are fmt-style templates applied to
	// the respective numeric caps when building the "go" line, e.g.
	// "nodes %d" and "movetime %d". MultiPVOption is a fmt-style template
	// applied to the requested line count and sent as its own line before
	// the position, e.g. "setoption name MultiPV value %d".
	NodesOption    string `toml:"nodesOption"`
	DurationOption string `toml:"durationOption"`
	MultiPVOption  string `toml:"multipvOption"`

	// WDLOption, if non-empty, is a literal setoption line enabling WDL
	// reporting (e.g. "setoption name UCI_ShowWDL value true").
	WDLOption string `toml:"wdlOption"`
}

const (
	defaultIsReadyLine  = "isready"
	defaultReadyOkToken = "readyok"
	defaultSetPosition  = "position fen %s"
	defaultNodesOption  = "nodes %d"
	defaultDuration     = "movetime %d"
	defaultMultiPV      = "setoption name MultiPV value %d"
)

// Load reads and validates a Descriptor from a TOML file at path, filling
// in defaults for the UCI handshake fields the file may omit.
func Load(path string) (*Descriptor, error) {
	var d Descriptor
	if _, err := toml.DecodeFile(path, &d); err != nil {
		return nil, fmt.Errorf("protocol: decode %s: %w", path, err)
	}
	d.applyDefaults()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Descriptor) applyDefaults() {
	if d.IsReadyLine == "" {
		d.IsReadyLine = defaultIsReadyLine
	}
	if d.ReadyOkToken == "" {
		d.ReadyOkToken = defaultReadyOkToken
	}
	if d.SetPosition == "" {
		d.SetPosition = defaultSetPosition
	}
	if d.NodesOption == "" {
		d.NodesOption = defaultNodesOption
	}
	if d.DurationOption == "" {
		d.DurationOption = defaultDuration
	}
	if d.MultiPVOption == "" {
		d.MultiPVOption = defaultMultiPV
	}
}

// Validate checks the fields a worker cannot function without. Engine path
// existence is deliberately not checked here: the worker's spawn attempt is
// the single source of truth for that failure (§7 WorkerSpawn).
func (d *Descriptor) Validate() error {
	if d.Path == "" {
		return fmt.Errorf("protocol: path is required")
	}
	if d.SetPosition == "" {
		return fmt.Errorf("protocol: setPosition is required")
	}
	return nil
}
