package store

import "time"

// Template is one stored revision of the master email template.
type Template struct {
	Name      string
	HTML      string
	UpdatedBy string
	UpdatedAt time.Time
}

// Row names for the two templates the store keeps. The master row is the
// live template; the default row is the factory copy reset restores from.
const (
	MasterTemplate  = "master"
	DefaultTemplate = "default"
)
