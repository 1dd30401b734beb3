package gserver

import "time"

// Policy decides when a remote server or contact should be contacted again
type Policy struct {
	Now func() time.Time
}

// NewPolicy creates a policy using the wall clock
func NewPolicy() *Policy {
	return &Policy{Now: time.Now}
}

// NextUpdateDate returns the time of the next update.
// After a successful contact the record is good for a week from that contact.
// After a failed one the retry interval grows with the time since the last
// successful contact, capped at six months (one month for servers whose
// type is still undetected).
func (p *Policy) NextUpdateDate(success bool, created, lastContact time.Time, undetected bool) time.Time {
	now := p.now()

	contactTime := lastContact
	if created.After(lastContact) {
		contactTime = created
	}

	if success {
		if contactTime.IsZero() {
			return now
		}
		return contactTime.Add(7 * 24 * time.Hour)
	}

	since := now.Sub(contactTime)
	switch {
	case since < 6*time.Hour:
		return now.Add(6 * time.Hour)
	case since < 12*time.Hour:
		return now.Add(12 * time.Hour)
	case since < 24*time.Hour:
		return now.Add(24 * time.Hour)
	case since < 7*24*time.Hour:
		return now.Add(7 * 24 * time.Hour)
	case undetected:
		return now.AddDate(0, 1, 0)
	default:
		return now.AddDate(0, 6, 0)
	}
}

func (p *Policy) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}
