package ai

import (
	"os"
	"strings"
)

// parseAIDebugEnv reads PRREVIEW_AI_DEBUG and returns (debugEnabled, promptsEnabled).
// Valid values:
//
//	"all" or "1" or "true" - enable both debug and prompts
//	"prompts" - enable only prompts
//	"none" or "0" or "false" or "" - disable all
func parseAIDebugEnv() (debug bool, prompts bool) {
	debugEnv := strings.TrimSpace(strings.ToLower(os.Getenv("PRREVIEW_AI_DEBUG")))

	switch debugEnv {
	case "all", "1", "true":
		return true, true
	case "prompts":
		return false, true
	case "none", "0", "false", "":
		return false, false
	}

	return false, false
}

// isDebug checks if AI debug is enabled via PRREVIEW_AI_DEBUG env var.
func isDebug() bool {
	debug, _ := parseAIDebugEnv()
	return debug
}

// isDebugPrompts checks if AI prompt debugging is enabled via PRREVIEW_AI_DEBUG env var.
func isDebugPrompts() bool {
	_, prompts := parseAIDebugEnv()
	return prompts
}
