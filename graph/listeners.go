package graph

import (
	"context"

	"github.com/graphflow/graphflow/log"
)

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node has started execution
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node has completed successfully
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node encountered an error
	NodeEventError NodeEvent = "error"
)

// NodeListener defines the interface for node event listeners.
// For NodeEventStart state is the input state; for NodeEventComplete it is
// the partial update the node returned.
type NodeListener interface {
	// OnNodeEvent is called when a node event occurs
	OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state State, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc func(ctx context.Context, event NodeEvent, nodeName string, state State, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state State, err error) {
	f(ctx, event, nodeName, state, err)
}

// LoggingListener writes node events to a logger.
type LoggingListener struct {
	logger       log.Logger
	includeState bool
}

// NewLoggingListener creates a listener logging through logger. With
// includeState the state handed to and returned by each node is logged at
// debug level.
func NewLoggingListener(logger log.Logger, includeState bool) *LoggingListener {
	return &LoggingListener{logger: logger, includeState: includeState}
}

// OnNodeEvent implements NodeListener
func (l *LoggingListener) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state State, err error) {
	step := StepFromContext(ctx)
	switch event {
	case NodeEventStart:
		l.logger.Info("step %d: executing node %s", step, nodeName)
		if l.includeState {
			l.logger.Debug("node %s state before: %v", nodeName, state)
		}
	case NodeEventComplete:
		if l.includeState {
			l.logger.Debug("node %s update: %v", nodeName, state)
		}
	case NodeEventError:
		l.logger.Error("node %s failed: %v", nodeName, err)
	}
}
