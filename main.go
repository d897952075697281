package main

import (
	"fmt"
	"log"

	"github.com/landerlab/golander/agent"
	"github.com/landerlab/golander/agent/dqn"
	"github.com/landerlab/golander/environment/lunarlander"
	"github.com/landerlab/golander/experiment"
	"github.com/landerlab/golander/experiment/tracker"
)

func main() {
	var seed uint64 = 192382

	// Create the environment
	task := lunarlander.NewDefaultLand(seed, 500)
	env, err := lunarlander.New(task, 0.99)
	if err != nil {
		log.Fatalf("could not create environment: %v", err)
	}

	// Create the learning algorithm
	conf, err := dqn.NewDefaultConfig([]int{128, 128}, seed)
	if err != nil {
		log.Fatalf("could not create agent configuration: %v", err)
	}
	q, err := conf.CreateAgent(env, int64(seed))
	if err != nil {
		log.Fatalf("could not create agent: %v", err)
	}
	if closer, ok := q.(agent.Closer); ok {
		defer closer.Close()
	}

	// Experiment
	returns := tracker.NewReturn("./data.bin")
	e := experiment.NewOnline(env, q, seed, returns)
	if err := e.Run(600); err != nil {
		log.Fatalf("experiment aborted: %v", err)
	}
	if err := e.Save(); err != nil {
		log.Fatalf("could not save experiment data: %v", err)
	}
	if err := returns.SaveCSV("./data.csv"); err != nil {
		log.Fatalf("could not export returns: %v", err)
	}

	data := returns.Returns()
	fmt.Println(data[len(data)-10:])
}
