package testutil

import (
	"testing"

	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
	inmemdb "github.com/RTBS-ISP/UniPlus-sub000/storage/inmem"
)

// Password of every user created by Seed.
const Password = "secret"

// Fixture is a seeded in-memory API:
//   - users "org" (organizer), "ann" (student) and "root" (admin)
//   - the 2-day "Go Meetup" hosted by org, where ann holds a pending registration
//   - the "Jazz Night" hosted by org
type Fixture struct {
	DB           *inmemdb.DB
	EventID      string
	OtherEventID string
	Ticket       string
}

func CreateUser(t *testing.T, db *inmemdb.DB, username, firstName, email, role string) user.User {
	t.Helper()
	return db.AddUser(user.User{
		Username:  username,
		FirstName: firstName,
		Email:     email,
		Role:      role,
	}, Password)
}

func Seed(t *testing.T) Fixture {
	t.Helper()
	db := inmemdb.Open()
	CreateUser(t, db, "org", "Olga", "", user.RoleOrganizer)
	CreateUser(t, db, "ann", "Ann", "ann@uni.test", "")
	CreateUser(t, db, "root", "", "", user.RoleAdmin)

	id := db.AddEvent("org", event.Detail{
		Event: event.Event{Title: "Go Meetup", Category: "tech", Host: []string{"CS Club"}, StartDate: "2025-10-01"},
		Schedule: []event.Session{
			{Date: "2025-10-01", StartTime: "10:00", EndTime: "12:00", Location: "Hall A"},
			{Date: "2025-10-02", StartTime: "10:00", EndTime: "12:00", Location: "Hall A"},
		},
	})
	other := db.AddEvent("org", event.Detail{Event: event.Event{Title: "Jazz Night", Category: "music", StartDate: "2025-11-01"}})
	ticket := db.AddRegistration(id, "ann", dashboard.ApprovalPending)

	return Fixture{DB: db, EventID: id, OtherEventID: other, Ticket: ticket}
}
