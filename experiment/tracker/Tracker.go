// Package tracker implements Trackers, which record and save data
// generated while an experiment runs.
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/landerlab/golander/timestep"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished. Experiments send every timestep to each
// registered Tracker through Track; the Tracker decides which data
// from the timestep it caches.
type Tracker interface {
	Track(t ts.TimeStep)
	Save() error
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaddata: could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []float64

	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loaddata: could not decode data: %v", err)
	}

	return data, nil
}
