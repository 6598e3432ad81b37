package game

// Question is one entry in a quiz deck. Answer validation and scoring are
// not handled here; the coordinator only shows questions and acknowledges
// submissions.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Deck is an ordered set of questions played by a session.
type Deck struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}
