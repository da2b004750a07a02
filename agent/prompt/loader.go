package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/reviser.txt
	reviserRaw string

	//go:embed template/decider.txt
	deciderRaw string

	//go:embed template/describer.txt
	describerRaw string

	//go:embed template/analyzer.txt
	analyzerRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Reviser   string
	Decider   string
	Describer string
	Analyzer  string
}

// LoadPromptSet returns trimmed prompt strings. Safe to call concurrently;
// the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Reviser:   strings.TrimSpace(reviserRaw),
		Decider:   strings.TrimSpace(deciderRaw),
		Describer: strings.TrimSpace(describerRaw),
		Analyzer:  strings.TrimSpace(analyzerRaw),
	}
}
