package models

import (
	"time"
)

// Stored field names. They match the records written by earlier app
// versions, so they stay camelCase.
const (
	FieldTitle     = "title"
	FieldFeeling   = "feeling"
	FieldContent   = "content"
	FieldCreatedAt = "createdAt"
	FieldDate      = "date"
)

// Entry is one diary record of a user
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Feeling   string    `json:"feeling"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Date      time.Time `json:"date"`
}

// Fields is the raw field set of a stored entry document.
type Fields map[string]interface{}

// Document is a stored entry as returned by a document store: the
// store-assigned identifier plus whatever fields the record carries.
type Document struct {
	ID     string
	Fields Fields
}
