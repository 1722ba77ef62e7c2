package autoplay

import (
	"github.com/sirupsen/logrus"

	"github.com/procsched/schedsim/sim"
)

// Controller is the command surface the player drives.
// *sim.LevelController satisfies it.
type Controller interface {
	Snapshot() *sim.LevelSnapshot
	Assign(processID int64, cpuID int) bool
	MoveToIOQueue(processID int64) bool
}

// Player issues commands once per tick according to a Strategy.
type Player struct {
	strategy Strategy
	preempt  bool
}

// NewPlayer creates a player. With preempt set, Running CPUs are preempted
// whenever the strategy prefers a waiting process.
func NewPlayer(strategy Strategy, preempt bool) *Player {
	return &Player{strategy: strategy, preempt: preempt}
}

// Act inspects the level and issues commands:
//  1. every process blocked on IO is moved to the IOQueue;
//  2. idle CPUs take the best ready processes;
//  3. with preemption on, running CPUs are offered the remaining candidates.
//
// Returns the number of accepted commands.
func (p *Player) Act(c Controller) int {
	snap := c.Snapshot()
	if snap.Phase != sim.PhaseRunning {
		return 0
	}
	accepted := 0

	idle := make(map[int]bool)
	running := make(map[int]sim.ProcessSnapshot)
	var ready []sim.ProcessSnapshot
	for _, ps := range snap.Processes {
		switch {
		case ps.Location == sim.LocationReady:
			ready = append(ready, ps)
		case ps.Location == sim.LocationCPU && ps.State == sim.ProcessIOWait:
			if c.MoveToIOQueue(ps.ID) {
				accepted++
				idle[ps.CPU] = true
			}
		case ps.Location == sim.LocationCPU && ps.State == sim.ProcessRunning && !ps.IsPendingSwitch:
			running[ps.CPU] = ps
		}
	}
	for _, cpu := range snap.CPUs {
		if cpu.State == sim.CPUIdle {
			idle[cpu.ID] = true
		}
	}

	p.strategy.OrderReady(ready)
	next := 0
	for _, cpu := range snap.CPUs {
		if next >= len(ready) {
			break
		}
		if !idle[cpu.ID] {
			continue
		}
		if c.Assign(ready[next].ID, cpu.ID) {
			accepted++
		}
		next++
	}

	if p.preempt {
		for _, cpu := range snap.CPUs {
			if next >= len(ready) {
				break
			}
			cur, ok := running[cpu.ID]
			if !ok || !p.strategy.Preempts(ready[next], cur) {
				continue
			}
			if c.Assign(ready[next].ID, cpu.ID) {
				logrus.Debugf("[tick %07d] autoplay preempted process %d on cpu %d for process %d", snap.Tick, cur.ID, cpu.ID, ready[next].ID)
				accepted++
			}
			next++
		}
	}
	return accepted
}
