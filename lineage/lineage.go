// Package lineage models division metadata for tracked cells.
//
// A Graph maps an instance label to its Record. Labels are globally unique
// within one batch item after sanitization, so a lookup never needs frame
// context. The archive's text serialization cannot carry integer map keys, so
// Graph widens keys to strings on encode and narrows them back on decode; the
// transform lives entirely in this package and is invisible to callers.
package lineage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Record describes one tracked cell instance.
type Record struct {
	// Label is the instance id this record belongs to.
	Label int `json:"label"`
	// Frames lists the frame indices in which the instance appears.
	Frames []int `json:"frames"`
	// Daughters lists the instance ids created at a division event.
	// Empty for instances that never divide.
	Daughters []int `json:"daughters"`
	// Parent is the id of the instance this one divided from, if any.
	Parent *int `json:"parent"`
	// FrameDiv is the frame index of the division event, if any.
	FrameDiv *int `json:"frame_div"`
	// Capped marks tracks that end before the movie does.
	Capped bool `json:"capped"`
}

// Graph maps instance labels to their records for one batch item.
type Graph map[int]Record

// MarshalJSON encodes the graph with labels widened to string keys.
func (g Graph) MarshalJSON() ([]byte, error) {
	widened := make(map[string]Record, len(g))
	for label, rec := range g {
		widened[strconv.Itoa(label)] = rec
	}
	return json.Marshal(widened)
}

// UnmarshalJSON decodes a string-keyed graph, narrowing keys back to ints.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var widened map[string]Record
	if err := json.Unmarshal(data, &widened); err != nil {
		return err
	}
	out := make(Graph, len(widened))
	for key, rec := range widened {
		label, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("lineage key %q is not an integer label: %w", key, err)
		}
		out[label] = rec
	}
	*g = out
	return nil
}

// Labels returns the graph's instance labels in ascending order.
func (g Graph) Labels() []int {
	labels := make([]int, 0, len(g))
	for label := range g {
		labels = append(labels, label)
	}
	sort.Ints(labels)
	return labels
}

// Divisions returns the labels of instances that divided, ascending.
func (g Graph) Divisions() []int {
	var divs []int
	for label, rec := range g {
		if len(rec.Daughters) > 0 {
			divs = append(divs, label)
		}
	}
	sort.Ints(divs)
	return divs
}
