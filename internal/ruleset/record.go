package ruleset

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the derived update state of a record. It is never persisted.
type Status int

const (
	Unchecked Status = iota
	UpToDate
	UpdateRequired
	FileMissing
)

var statusNames = [...]string{
	Unchecked:      "Unchecked",
	UpToDate:       "UpToDate",
	UpdateRequired: "UpdateRequired",
	FileMissing:    "FileMissing",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// NeedsUpdate reports whether the status puts a record into the pending set
func (s Status) NeedsUpdate() bool {
	return s == UpdateRequired || s == FileMissing
}

// Record is a single ruleset plugin tracked against a GitHub repository
type Record struct {
	Owner    string
	Repo     string
	Tag      string // installed release tag, may be empty
	FileName string

	Status Status
}

var (
	ErrMissingOwner = errors.New("missing repository owner")
	ErrMissingRepo  = errors.New("missing repository name")
	ErrMissingFile  = errors.New("missing ruleset file name")
)

// Validate checks the fields a record needs before it can be resolved or installed
func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.Owner) == "":
		return ErrMissingOwner
	case strings.TrimSpace(r.Repo) == "":
		return ErrMissingRepo
	case strings.TrimSpace(r.FileName) == "":
		return ErrMissingFile
	}
	return nil
}

// Equal compares the persisted fields. Status is derived and ignored.
func (r Record) Equal(o Record) bool {
	return r.Owner == o.Owner &&
		r.Repo == o.Repo &&
		r.Tag == o.Tag &&
		r.FileName == o.FileName
}

// Slug returns "owner/repo"
func (r Record) Slug() string {
	return r.Owner + "/" + r.Repo
}

func (r Record) String() string {
	return fmt.Sprintf("%s (%s)", r.FileName, r.Tag)
}

// Reset returns a copy of the record with the status cleared
func (r Record) Reset() Record {
	r.Status = Unchecked
	return r
}

// EqualLists compares two record lists by their persisted fields
func EqualLists(a, b []Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
