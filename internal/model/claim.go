package model

// Claim is a checkable sentence taken from masked page text
type Claim struct {
	Text      string `json:"text"`
	Heuristic string `json:"heuristic"` // keyword:<kw>, sentence, or llm
	Sentence  int    `json:"sentence"`  // Index of the source sentence, -1 for LLM claims
}
