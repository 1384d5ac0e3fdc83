package completion

import (
	"stacknest/internal/logging"
	"stacknest/internal/models"
)

// Notifier receives user-facing completion events. Delivery and formatting
// live outside the engine; the in-tree implementation just logs.
type Notifier interface {
	// StackCompleted fires once when a stack reaches its goal.
	StackCompleted(stack *models.Stack)
	// ResetPromptRaised fires when a completed stack needs the user to
	// decide whether to reset it.
	ResetPromptRaised(stack *models.Stack)
}

// LogNotifier writes completion events to the structured log.
type LogNotifier struct {
	logger logging.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) StackCompleted(stack *models.Stack) {
	n.logger.Info("stack reached its goal",
		logging.Field{Key: "stack", Value: stack.Name},
		logging.Field{Key: "target", Value: stack.TargetAmount.String()})
}

func (n *LogNotifier) ResetPromptRaised(stack *models.Stack) {
	n.logger.Info("stack awaiting reset decision",
		logging.Field{Key: "stack", Value: stack.Name})
}
