package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/nlu.txt
	nluRaw string

	//go:embed template/nlg.txt
	nlgRaw string
)

// PromptSet holds the system prompts of the LLM-backed modules.
type PromptSet struct {
	NLU string
	NLG string
}

func LoadPromptSet() PromptSet {
	return PromptSet{
		NLU: strings.TrimSpace(nluRaw),
		NLG: strings.TrimSpace(nlgRaw),
	}
}
