package types

import (
	"path"
	"time"
)

// StoredObject is one entry returned by a bucket listing. LastModified is nil
// when the backend did not report a modification time.
type StoredObject struct {
	Key          string
	LastModified *time.Time
}

// FileName returns the final path segment of the object key, which is what the
// student store keeps in its image column.
func (o StoredObject) FileName() string {
	return path.Base(o.Key)
}

// ModifiedOrZero returns LastModified or the zero time when it is undefined.
func (o StoredObject) ModifiedOrZero() time.Time {
	if o.LastModified == nil {
		return time.Time{}
	}
	return *o.LastModified
}

// StudentRecord is a row of the student store, read-only from this service.
type StudentRecord struct {
	Image  string `json:"image"`
	Name   string `json:"name"`
	Career string `json:"career"`
}

// DisplayImage is the record served to the carousel. LastModified is omitted
// when the backend did not report one.
type DisplayImage struct {
	Key           string     `json:"key"`
	URL           string     `json:"url"`
	LastModified  *time.Time `json:"lastModified,omitempty"`
	StudentName   string     `json:"studentName,omitempty"`
	StudentCareer string     `json:"studentCareer,omitempty"`
}
