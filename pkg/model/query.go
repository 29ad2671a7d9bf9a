package model

// Query is one sampled question with its gold answer and the IDs of the
// documents that support it
type Query struct {
	QuestionID   QuestionID   `json:"question_id"`
	Question     string       `json:"question"`
	GoldAnswer   string       `json:"gold_answer"`
	GoldDocIDs   []DocID      `json:"gold_doc_ids"`
	Source       Source       `json:"source_dataset"`
	QuestionType QuestionType `json:"question_type"`
}

// Document is one entry of the corpus
type Document struct {
	DocID          DocID  `json:"doc_id"`
	Content        string `json:"content"`
	OriginalSource Source `json:"original_source"`
	OriginalID     string `json:"original_id"`
	IsGold         bool   `json:"is_gold"`
}
