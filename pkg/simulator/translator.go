package simulator

import "github.com/TheRev45/IzziAutomationAIP/pkg/models"

// TranslateCommands maps an engine command sequence onto concrete
// simulator commands for the target queue. Empty commands translate to
// nothing: the agent is already where the plan wants it.
func TranslateCommands(commands []models.Command, target *models.Queue) []AgentCommand {
	out := make([]AgentCommand, 0, len(commands))
	for _, c := range commands {
		switch c {
		case models.CommandLogin:
			out = append(out, AgentCommand{Kind: CmdLogin, User: target.UserID})
		case models.CommandLogout:
			out = append(out, AgentCommand{Kind: CmdLogout})
		case models.CommandExecuteQueue:
			out = append(out, AgentCommand{Kind: CmdStartProcess, QueueID: target.ID})
		case models.CommandEmpty:
			// no transition required
		}
	}
	return out
}
