package models

// Upload is one file buffer supplied by the user for a single interaction.
type Upload struct {
	Name string
	Data []byte
}

// Chunk represents a window of extracted text. Start and End are rune
// offsets into the source text.
type Chunk struct {
	Content  string `json:"content"`
	Position int    `json:"position"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// Answer is the displayed result of one question.
type Answer struct {
	Question string  `json:"question"`
	Content  string  `json:"content"`
	Sources  []Chunk `json:"sources,omitempty"`
}
