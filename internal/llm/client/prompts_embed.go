package client

import "embed"

// embeddedPrompts holds the system prompt templates rendered by BuildSystemPrompt.
//
//go:embed prompts/*.txt
var embeddedPrompts embed.FS
