package models

// Command is an abstract transition step emitted by the decision engine.
// The simulator translates these into concrete agent commands using the
// target queue's owning user and id.
type Command int

const (
	// CommandEmpty means no transition is required.
	CommandEmpty Command = iota
	// CommandLogin logs the agent in as the target queue's owning user.
	CommandLogin
	// CommandLogout logs the agent out of its current user session.
	CommandLogout
	// CommandExecuteQueue starts processing the target queue.
	CommandExecuteQueue
)

// String returns a human-readable command name.
func (c Command) String() string {
	switch c {
	case CommandEmpty:
		return "empty"
	case CommandLogin:
		return "login"
	case CommandLogout:
		return "logout"
	case CommandExecuteQueue:
		return "execute_queue"
	default:
		return "unknown"
	}
}
