// Package persist implements the optional flat-text persisted-state
// format: one expanded path per line, followed by a trailing line
// carrying the 0-based index of the currently selected path (or a
// negative value for no selection). Nothing in this engine invokes it —
// a host wires it to its own load/save points around Facade.ExpandedPaths
// and Facade.SelectedPath.
package persist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// State is what Encode/Decode round-trip: the expanded-paths snapshot in
// the order expanded_paths() produced it, and which one (if any) was
// selected.
type State struct {
	ExpandedPaths []string
	SelectedIndex int // negative means no selection
}

// Encode writes one path per line followed by the trailing selected-index
// line.
func Encode(w io.Writer, s State) error {
	bw := bufio.NewWriter(w)
	for _, p := range s.ExpandedPaths {
		if _, err := fmt.Fprintln(bw, p); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(bw, s.SelectedIndex); err != nil {
		return err
	}
	return bw.Flush()
}

// Decode reads the flat-text format back. The last non-empty line is
// taken as the selected-index; every earlier non-empty line is an
// expanded path. Blank lines are discarded. If the final line does not
// parse as an integer, Decode treats the whole input as having no
// selection and every non-empty line as a path.
func Decode(r io.Reader) (State, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return State{}, fmt.Errorf("persist: %w", err)
	}
	if len(lines) == 0 {
		return State{SelectedIndex: -1}, nil
	}

	last := lines[len(lines)-1]
	idx, err := strconv.Atoi(strings.TrimSpace(last))
	if err != nil {
		return State{ExpandedPaths: lines, SelectedIndex: -1}, nil
	}
	return State{ExpandedPaths: lines[:len(lines)-1], SelectedIndex: idx}, nil
}
