package citetree

import "github.com/sirupsen/logrus"

// Observer receives a callback after each node visited during a build.
// The visited count is cumulative across the whole build; estimatedTotal
// is the worst-case node count for the configured bounds.
type Observer interface {
	NodeVisited(paperID string, depth, visited, estimatedTotal int)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(paperID string, depth, visited, estimatedTotal int)

func (f ObserverFunc) NodeVisited(paperID string, depth, visited, estimatedTotal int) {
	f(paperID, depth, visited, estimatedTotal)
}

// EstimateTotal returns the worst-case node count for a full tree:
// the sum of branches^d for d in 0..maxDepth.
func EstimateTotal(maxDepth, branches int) int {
	total := 0
	level := 1
	for d := 0; d <= maxDepth; d++ {
		total += level
		level *= branches
	}
	return total
}

// LogObserver returns an Observer that logs each visit.
func LogObserver(log *logrus.Entry) Observer {
	return ObserverFunc(func(paperID string, depth, visited, estimatedTotal int) {
		log.WithFields(logrus.Fields{
			"paper_id":  paperID,
			"depth":     depth,
			"visited":   visited,
			"estimated": estimatedTotal,
		}).Info("tree progress")
	})
}
