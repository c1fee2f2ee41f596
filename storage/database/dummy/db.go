// Package dummydb provides in-memory repositories with the same semantics as
// the PostgreSQL ones. Intended for tests and local hacking.
package dummydb

import (
	"sync"

	"github.com/trezcool/ushauri/core/meeting"
	"github.com/trezcool/ushauri/core/user"
)

type (
	DB struct {
		user       *userTable
		mentorship *mentorshipTable
		meeting    *meetingTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	// links maps studentID to the set of linked mentorIDs.
	mentorshipTable struct {
		sync.RWMutex
		links map[string]map[string]bool
	}

	meetingTable struct {
		sync.RWMutex
		table map[string]*meeting.Meeting
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		mentorship: &mentorshipTable{links: make(map[string]map[string]bool)},
		meeting:    &meetingTable{table: make(map[string]*meeting.Meeting)},
	}
	return db, nil
}
