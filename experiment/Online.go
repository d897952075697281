// Package experiment implements functionality for running an
// experiment
package experiment

import (
	"fmt"

	"github.com/landerlab/golander/agent"
	env "github.com/landerlab/golander/environment"
	"github.com/landerlab/golander/experiment/tracker"
	ts "github.com/landerlab/golander/timestep"
)

// Online is an Experiment that runs an agent online for a number of
// episodes. No offline evaluation is performed.
//
// The environment is reset with the same seed at the start of every
// episode, so each episode replays the same start state, terrain, and
// noise stream. Variation between runs comes from the agent's seed
// alone, which makes runs with equal seeds reproduce exactly.
type Online struct {
	env.Environment
	agent.Agent
	envSeed  uint64
	trackers []tracker.Tracker
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. Episodes are started from envSeed,
// and every registered tracker receives each timestep of the run.
func NewOnline(e env.Environment, a agent.Agent, envSeed uint64,
	trackers ...tracker.Tracker) *Online {
	return &Online{e, a, envSeed, trackers}
}

// Register registers a tracker.Tracker with the experiment so that
// data generated during the experiment can be tracked and saved.
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment. The first error
// from the environment or the agent aborts the episode.
func (o *Online) RunEpisode() error {
	step, err := o.Environment.Reset(o.envSeed)
	if err != nil {
		return fmt.Errorf("runepisode: could not reset environment: %v", err)
	}
	o.Agent.ObserveFirst(step)
	o.track(step)

	for !step.Last() {
		action := o.Agent.SelectAction(step)

		step, err = o.Environment.Step(action)
		if err != nil {
			return fmt.Errorf("runepisode: could not step environment: %v",
				err)
		}
		o.track(step)

		o.Agent.Observe(action, step)
		if err := o.Agent.Step(); err != nil {
			return fmt.Errorf("runepisode: could not step agent: %v", err)
		}
	}

	o.Agent.EndEpisode()
	return nil
}

// Run runs the experiment for the given number of episodes. The first
// episode error aborts the run; episodes completed before the error
// remain tracked.
func (o *Online) Run(episodes int) error {
	for i := 0; i < episodes; i++ {
		if err := o.RunEpisode(); err != nil {
			return fmt.Errorf("run: episode %v: %v", i+1, err)
		}
	}
	return nil
}

// Save saves all the data cached by the trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}
