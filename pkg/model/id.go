package model

import (
	"github.com/google/uuid"
)

type DocID string

type QuestionID string

func (id DocID) String() string      { return string(id) }
func (id QuestionID) String() string { return string(id) }

// NewDocID derives the document ID from the source and the source-native ID.
// Same inputs always produce the same ID (UUIDv5 in the DNS namespace), so
// re-running the pipeline keeps IDs stable between generations.
func NewDocID(source Source, originalID string) DocID {
	return DocID(uuid.NewSHA1(uuid.NameSpaceDNS, []byte(string(source)+":"+originalID)).String())
}

// NewQuestionID derives the question ID in the same way as NewDocID with a
// "q:" prefix so question and document IDs never collide.
func NewQuestionID(source Source, originalID string) QuestionID {
	return QuestionID(uuid.NewSHA1(uuid.NameSpaceDNS, []byte("q:"+string(source)+":"+originalID)).String())
}
