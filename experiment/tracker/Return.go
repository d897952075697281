package tracker

import (
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"os"
	"strconv"

	ts "github.com/landerlab/golander/timestep"
)

// Return tracks and saves the episodic return in an experiment. When
// an environment returns a TimeStep, this Tracker will extract the
// reward and accumulate the return for each episode in the experiment.
//
// An episode must finish for its return to be recorded. If the last
// episode in an experiment does not finish, that episode's return is
// not recorded.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker which saves its
// data at filename.
func NewReturn(filename string) *Return {
	return &Return{lastTimeStep: -1, filename: filename}
}

// Track tracks the reward seen on a timestep. When the timestep is the
// last of its episode, through either termination or truncation, the
// accumulated return is recorded and accumulation restarts for the
// next episode.
//
// Track panics if it is called on non-sequential timesteps
func (r *Return) Track(step ts.TimeStep) {
	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v were tracked",
			r.lastTimeStep, step.Number))
	}

	r.currentReturn += step.Reward
	if !step.Last() {
		r.lastTimeStep = step.Number
		return
	}

	r.episodeReturns = append(r.episodeReturns, r.currentReturn)
	r.currentReturn = 0.0
	r.lastTimeStep = -1
}

// Returns returns a snapshot of the returns of all completed episodes
// so far, in episode order. The snapshot is safe to read while the
// experiment continues to run.
func (r *Return) Returns() []float64 {
	out := make([]float64, len(r.episodeReturns))
	copy(out, r.episodeReturns)
	return out
}

// Save saves the data tracked by the Return Tracker to disk
func (r *Return) Save() error {
	file, err := os.Create(r.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(r.episodeReturns); err != nil {
		return fmt.Errorf("save: could not encode return data: %v", err)
	}
	return nil
}

// SaveCSV writes the tracked returns to filename as a two-column CSV
// record of 1-based episode index and episodic return.
func (r *Return) SaveCSV(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("savecsv: could not open save file: %v", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"episode", "return"}); err != nil {
		return fmt.Errorf("savecsv: could not write header: %v", err)
	}

	for i, episodeReturn := range r.episodeReturns {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(episodeReturn, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("savecsv: could not write episode %v: %v",
				i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("savecsv: could not flush records: %v", err)
	}
	return nil
}
