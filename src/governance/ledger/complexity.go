package ledger

import "github.com/stake-plus/agentgov/src/shared/agents"

// ActionComplexity maps an action identifier to its risk tier:
// 1 read, 2 generate/analyze, 3 mutate, 4 destroy or move value.
// Unknown actions land on tier 4 so a typo never grants privilege.
func ActionComplexity(action string) int {
	switch action {
	case "read", "present", "list", "view", "get", "display", "chat":
		return 1
	case "generate", "analyze", "summarize", "classify", "draft", "review":
		return 2
	case "create", "update", "send", "schedule", "publish", "modify":
		return 3
	case "delete", "execute", "transfer", "deploy", "purchase", "grant":
		return 4
	default:
		// Fail closed.
		return 4
	}
}

// MaturityCeiling is the highest complexity tier a level may perform.
// An unknown level gets the student ceiling.
func MaturityCeiling(level agents.MaturityLevel) int {
	switch level {
	case agents.MaturityStudent:
		return 1
	case agents.MaturityIntern:
		return 2
	case agents.MaturitySupervised:
		return 3
	case agents.MaturityAutonomous:
		return 4
	default:
		return 1
	}
}
