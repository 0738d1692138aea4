package model

import "time"

// Item is one piece of ingested content as the routing engine sees it. The
// ingest pipeline owns the item; the engine reads it and never mutates it,
// working on copies when a macro transform applies.
type Item struct {
	GUID           string            `json:"guid"`
	Provider       string            `json:"ingest_provider"`
	Type           string            `json:"type"`
	Headline       string            `json:"headline,omitempty"`
	Body           string            `json:"body_text,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
	Versioncreated time.Time         `json:"versioncreated"`

	// Send bookkeeping, written by the send service only.
	TaskID    string     `json:"task_id,omitempty"`
	Archived  *time.Time `json:"archived,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Clone returns a deep copy. Macro transforms and publish targeting operate on
// the copy so the source item stays untouched.
func (it *Item) Clone() *Item {
	out := *it
	if it.Fields != nil {
		out.Fields = make(map[string]string, len(it.Fields))
		for k, v := range it.Fields {
			out.Fields[k] = v
		}
	}
	if it.Archived != nil {
		archived := *it.Archived
		out.Archived = &archived
	}
	return &out
}
