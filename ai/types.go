package ai

// Role identifies the author of a chat turn sent to the model.
type Role string

const (
	// RoleSystem carries instructions or compacted history summaries.
	RoleSystem Role = "system"
	// RoleHuman is a turn written by the user.
	RoleHuman Role = "human"
	// RoleAI is a turn previously generated by the model.
	RoleAI Role = "ai"
)

// ChatTurn is a single turn in the prompt sent to a Generator.
type ChatTurn struct {
	Role    Role
	Content string
}

// SystemTurn builds a system-role turn.
func SystemTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleSystem, Content: content}
}

// HumanTurn builds a human-role turn.
func HumanTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleHuman, Content: content}
}

// AITurn builds an AI-role turn.
func AITurn(content string) ChatTurn {
	return ChatTurn{Role: RoleAI, Content: content}
}
