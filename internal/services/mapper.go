package services

import (
	"math"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FromDocument converts a stored document into an Entry. It reports false
// when title, feeling or content is missing or not a string.
//
// createdAt is resolved from, in order: a native createdAt timestamp, a
// legacy-encoded createdAt, a native date timestamp, and finally now.
// date is resolved from a native date, a legacy date, then createdAt.
func FromDocument(doc models.Document, now time.Time) (models.Entry, bool) {
	title, ok := doc.Fields[models.FieldTitle].(string)
	if !ok {
		return models.Entry{}, false
	}
	feeling, ok := doc.Fields[models.FieldFeeling].(string)
	if !ok {
		return models.Entry{}, false
	}
	content, ok := doc.Fields[models.FieldContent].(string)
	if !ok {
		return models.Entry{}, false
	}

	rawCreated := doc.Fields[models.FieldCreatedAt]
	rawDate := doc.Fields[models.FieldDate]

	var createdAt time.Time
	if t, ok := nativeTime(rawCreated); ok {
		createdAt = t
	} else if t, ok := legacyTime(rawCreated); ok {
		createdAt = t
	} else if t, ok := nativeTime(rawDate); ok {
		createdAt = t
	} else {
		createdAt = now
	}

	date := createdAt
	if t, ok := nativeTime(rawDate); ok {
		date = t
	} else if t, ok := legacyTime(rawDate); ok {
		date = t
	}

	return models.Entry{
		ID:        doc.ID,
		Title:     title,
		Feeling:   feeling,
		Content:   content,
		CreatedAt: createdAt,
		Date:      date,
	}, true
}

// ToDocument builds the fields of a new entry. createdAt and date carry the
// same instant.
func ToDocument(title, feeling, content string, now time.Time) models.Fields {
	return models.Fields{
		models.FieldTitle:     title,
		models.FieldFeeling:   feeling,
		models.FieldContent:   content,
		models.FieldDate:      now,
		models.FieldCreatedAt: now,
	}
}

// nativeTime accepts the timestamp types current writers produce: time.Time
// in memory and BSON datetimes from Mongo.
func nativeTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case primitive.DateTime:
		return t.Time(), true
	}
	return time.Time{}, false
}

// legacyTime accepts encodings found in records imported from older clients.
func legacyTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.Timestamp:
		if t.T == 0 {
			return time.Time{}, false
		}
		return time.Unix(int64(t.T), 0), true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case int64:
		return time.UnixMilli(t), true
	case int32:
		return time.UnixMilli(int64(t)), true
	case float64:
		// JS clients write epoch millis as doubles
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)), true
	}
	return time.Time{}, false
}
