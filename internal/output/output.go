// Package output implements the append-only JSON-array file convention
// used for the puzzle and non-puzzle streams: each flush keeps the file a
// valid top-level JSON array without ever reading the whole thing back in.
package output

import (
	"encoding/json"
	"fmt"
	"os"
)

// Appender owns exclusive append access to one JSON-array output file.
// Only one goroutine may call Append on a given Appender at a time; the
// mining pipeline's single driver thread is that caller.
type Appender struct {
	path string
}

// NewAppender returns an Appender for path. The file is created lazily on
// the first Append so a run that emits zero records of a kind can still
// choose not to touch the file, matching the "empty writes still touch
// the files" requirement only once a wave actually flushes.
func NewAppender(path string) *Appender {
	return &Appender{path: path}
}

// Append writes objs to the array, repairing the trailing "]" in place
// rather than rewriting the whole file. Called with an empty objs slice it
// still touches the file so downstream consumers may open it.
func (a *Appender) Append(objs []any) error {
	encoded := make([][]byte, len(objs))
	for i, o := range objs {
		b, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("output: marshal record %d: %w", i, err)
		}
		encoded[i] = b
	}
	return a.appendRaw(encoded)
}

func (a *Appender) appendRaw(encoded [][]byte) error {
	f, err := os.OpenFile(a.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("output: open %s: %w", a.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("output: stat %s: %w", a.path, err)
	}

	needsComma := false

	if info.Size() == 0 {
		if _, err := f.WriteString("["); err != nil {
			return a.repairOnFailure(f, err)
		}
	} else {
		closeOffset, lastByte, err := lastNonWhitespace(f, info.Size())
		if err != nil {
			return fmt.Errorf("output: scan %s: %w", a.path, err)
		}
		if lastByte == ']' {
			if err := f.Truncate(closeOffset); err != nil {
				return fmt.Errorf("output: truncate %s: %w", a.path, err)
			}
			if _, err := f.Seek(closeOffset, 0); err != nil {
				return fmt.Errorf("output: seek %s: %w", a.path, err)
			}
		} else {
			if _, err := f.Seek(info.Size(), 0); err != nil {
				return fmt.Errorf("output: seek %s: %w", a.path, err)
			}
		}

		_, beforeByte, err := lastNonWhitespace(f, closeOffset)
		if err == nil && beforeByte != '[' && closeOffset > 0 {
			needsComma = true
		}
	}

	if needsComma && len(encoded) > 0 {
		if _, err := f.WriteString(","); err != nil {
			return a.repairOnFailure(f, err)
		}
	}

	for i, b := range encoded {
		if i > 0 {
			if _, err := f.Write([]byte(",")); err != nil {
				return a.repairOnFailure(f, err)
			}
		}
		if _, err := f.Write(b); err != nil {
			return a.repairOnFailure(f, err)
		}
	}

	if _, err := f.WriteString("]"); err != nil {
		return a.repairOnFailure(f, err)
	}

	f.Sync() // best effort

	return nil
}

// lastNonWhitespace scans backward from offset (exclusive) in f for the
// last byte that is not ASCII whitespace, returning its offset and value.
func lastNonWhitespace(f *os.File, offset int64) (int64, byte, error) {
	buf := make([]byte, 1)
	for pos := offset - 1; pos >= 0; pos-- {
		if _, err := f.ReadAt(buf, pos); err != nil {
			return 0, 0, err
		}
		switch buf[0] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return pos, buf[0], nil
		}
	}
	return 0, 0, fmt.Errorf("output: no non-whitespace byte found")
}

// repairOnFailure is called when a write fails partway through a flush. It
// re-writes the closing "]" so the file stays a valid JSON array even
// though this flush's records were lost (§7 OutputIo).
func (a *Appender) repairOnFailure(f *os.File, writeErr error) error {
	f.WriteString("]")
	f.Sync()
	return fmt.Errorf("output: append to %s failed, repaired closing bracket: %w", a.path, writeErr)
}
