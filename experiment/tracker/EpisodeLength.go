package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/landerlab/golander/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment. An episode must finish for its length to be recorded.
type EpisodeLength struct {
	episodeLengths []int
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength Tracker which saves its
// data at filename.
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track caches the episode length when the timestep passed to it is
// the last timestep in its episode.
func (e *EpisodeLength) Track(t ts.TimeStep) {
	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, t.Number)
	}
}

// Lengths returns a snapshot of the lengths of all completed episodes
// so far, in episode order.
func (e *EpisodeLength) Lengths() []int {
	out := make([]int, len(e.episodeLengths))
	copy(out, e.episodeLengths)
	return out
}

// Save saves the data tracked by the EpisodeLength Tracker to disk
func (e *EpisodeLength) Save() error {
	file, err := os.Create(e.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(e.episodeLengths); err != nil {
		return fmt.Errorf("save: could not encode episode lengths: %v", err)
	}
	return nil
}
