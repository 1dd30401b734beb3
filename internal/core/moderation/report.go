package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rivo/uniseg"
)

// MaxCommentLength is the limit on report comments, in grapheme clusters
const MaxCommentLength = 1000

var (
	// ErrReportNotFound is returned when a report id does not exist
	ErrReportNotFound = errors.New("report not found")

	// ErrInvalidReporter is returned for a report without a reporting user
	ErrInvalidReporter = errors.New("reporting user id must be positive")

	// ErrInvalidContact is returned for a report without a reported contact
	ErrInvalidContact = errors.New("reported contact id must be positive")

	// ErrCommentTooLong is returned when the comment exceeds MaxCommentLength
	ErrCommentTooLong = fmt.Errorf("comment exceeds %d characters", MaxCommentLength)
)

// Report is a moderation report a local user filed against a contact
type Report struct {
	Created time.Time `json:"created"`
	Comment string    `json:"comment"`
	// PostURIIDs are the uri ids of posts supporting the report
	PostURIIDs []int64 `json:"postUriIds"`
	ID         int64   `json:"id"`  // 0 until stored
	UID        int64   `json:"uid"` // reporting user
	CID        int64   `json:"cid"` // reported contact
	// Forward asks for the report to be sent to the contact's server
	Forward bool `json:"forward"`
}

// NewReport validates and builds a report
func NewReport(uid, cid int64, created time.Time, comment string, forward bool, postURIIDs []int64) (*Report, error) {
	if uid <= 0 {
		return nil, ErrInvalidReporter
	}
	if cid <= 0 {
		return nil, ErrInvalidContact
	}
	if uniseg.GraphemeClusterCount(comment) > MaxCommentLength {
		return nil, ErrCommentTooLong
	}
	if postURIIDs == nil {
		postURIIDs = []int64{}
	}

	return &Report{
		UID:        uid,
		CID:        cid,
		Created:    created.UTC(),
		Comment:    comment,
		Forward:    forward,
		PostURIIDs: postURIIDs,
	}, nil
}

// Repository persists reports
type Repository interface {
	// Save inserts the report and its post links, setting report.ID
	Save(ctx context.Context, report *Report) error
	GetByID(ctx context.Context, id int64) (*Report, error)
}

// IsValidationError reports whether err was caused by bad report input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidReporter) ||
		errors.Is(err, ErrInvalidContact) ||
		errors.Is(err, ErrCommentTooLong)
}
