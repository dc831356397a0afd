package model

import "time"

// ActivityRecord is a roster member's last activity. LastActive is nil when no
// activity could be read, which is distinct from a zero timestamp.
type ActivityRecord struct {
	User       UserIdentity
	LastActive *time.Time
}
