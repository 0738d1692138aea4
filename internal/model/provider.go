package model

import "time"

// IdleTime is the inactivity threshold configured on a provider. The zero
// value disables idle detection.
type IdleTime struct {
	Hours   int `yaml:"hours" json:"hours"`
	Minutes int `yaml:"minutes" json:"minutes"`
}

// IsZero reports whether idle detection is disabled.
func (t IdleTime) IsZero() bool {
	return t.Hours == 0 && t.Minutes == 0
}

// Duration returns the threshold as a duration.
func (t IdleTime) Duration() time.Duration {
	return time.Duration(t.Hours)*time.Hour + time.Duration(t.Minutes)*time.Minute
}

// IngestProvider is an external feed source. Only the fields the routing
// engine and the dashboard read are modeled here; feeding-service
// configuration stays with the ingest daemon that owns it.
type IngestProvider struct {
	ID                  string     `yaml:"id" json:"id"`
	Name                string     `yaml:"name" json:"name"`
	SchemeID            string     `yaml:"routing_scheme,omitempty" json:"routing_scheme,omitempty"`
	IsClosed            bool       `yaml:"is_closed" json:"is_closed"`
	AllowRemoveIngested bool       `yaml:"allow_remove_ingested" json:"allow_remove_ingested"`
	IdleTime            IdleTime   `yaml:"idle_time" json:"idle_time"`
	LastItemUpdate      *time.Time `yaml:"last_item_update,omitempty" json:"last_item_update,omitempty"`
}
