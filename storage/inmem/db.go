package inmemdb

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	"github.com/RTBS-ISP/UniPlus-sub000/core/notification"
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
)

// SessionCookie is the name of the cookie carrying a Conn's session token.
const SessionCookie = "sessionid"

var (
	nowFunc = time.Now // mockable

	errUnauthorized = &core.APIError{StatusCode: http.StatusUnauthorized, Message: "Authentication credentials were not provided."}
	errForbidden    = &core.APIError{StatusCode: http.StatusForbidden, Message: "You do not have permission to perform this action."}
)

type (
	// DB is an in-memory stand-in for the UniPlus API, used by tests and demos.
	// All tables share one lock.
	DB struct {
		sync.RWMutex
		pk            int
		users         map[string]*userRow // by username
		sessions      map[string]string   // token -> username
		events        map[string]*eventRow
		eventOrder    []string
		notifications map[string][]*notification.Notification // by username
	}

	userRow struct {
		user.User
		password string
	}

	eventRow struct {
		event.Detail
		owner     string // username
		comments  []event.Comment
		ratings   map[string]int // username -> score
		attendees []*attendeeRow
	}

	attendeeRow struct {
		dashboard.Attendee
		username string
	}
)

func Open() *DB {
	return &DB{
		users:         make(map[string]*userRow),
		sessions:      make(map[string]string),
		events:        make(map[string]*eventRow),
		notifications: make(map[string][]*notification.Notification),
	}
}

func (db *DB) nextID() string {
	db.pk++
	return strconv.Itoa(db.pk)
}

// Conn is one client of the DB, eg. one browser; it remembers its session token.
type Conn struct {
	db    *DB
	mu    sync.Mutex
	token string
}

// Connect returns a Conn resuming the session identified by token, if any.
func (db *DB) Connect(token string) *Conn {
	return &Conn{db: db, token: token}
}

func (c *Conn) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Conn) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Cookies returns the session cookie of c, for relaying to a browser.
func (c *Conn) Cookies() []*http.Cookie {
	token := c.Token()
	if token == "" {
		return []*http.Cookie{{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1}}
	}
	return []*http.Cookie{{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true}}
}

// currentLocked returns the user logged in through c. The caller holds db's lock.
func (c *Conn) currentLocked() (*userRow, error) {
	username, ok := c.db.sessions[c.Token()]
	if !ok {
		return nil, errUnauthorized
	}
	usr, ok := c.db.users[username]
	if !ok {
		return nil, errUnauthorized
	}
	return usr, nil
}

func newToken() string {
	return uuid.NewString()
}

// AddUser seeds a user who can log in with password.
func (db *DB) AddUser(usr user.User, password string) user.User {
	db.Lock()
	defer db.Unlock()
	if usr.ID == "" {
		usr.ID = db.nextID()
	}
	if usr.Role == "" {
		usr.Role = user.RoleStudent
	}
	db.users[usr.Username] = &userRow{User: usr, password: password}
	return usr
}

// AddEvent seeds an event hosted by owner and returns its id.
func (db *DB) AddEvent(owner string, d event.Detail) string {
	db.Lock()
	defer db.Unlock()
	if d.ID == "" {
		d.ID = db.nextID()
	}
	if d.Status == "" {
		d.Status = event.StatusApproved
	}
	if d.CreatedAt == "" {
		d.CreatedAt = nowFunc().UTC().Format(time.RFC3339)
	}
	db.events[d.ID] = &eventRow{Detail: d, owner: owner, ratings: make(map[string]int)}
	db.eventOrder = append(db.eventOrder, d.ID)
	return d.ID
}

// AddRegistration seeds a registration of username to the event and returns its ticket id.
func (db *DB) AddRegistration(eventID, username, approval string) string {
	db.Lock()
	defer db.Unlock()
	row, ok := db.events[eventID]
	if !ok {
		return ""
	}
	usr := db.users[username]
	return row.register(db, usr, approval).TicketID
}

// Notify pushes a notification in the inbox of username.
func (db *DB) Notify(username string, n notification.Notification) {
	db.Lock()
	defer db.Unlock()
	db.notifyLocked(username, n)
}

func (db *DB) notifyLocked(username string, n notification.Notification) {
	if n.ID == "" {
		n.ID = db.nextID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = nowFunc().UTC()
	}
	db.notifications[username] = append(db.notifications[username], &n)
}

func (row *eventRow) register(db *DB, usr *userRow, approval string) *attendeeRow {
	a := &attendeeRow{
		Attendee: dashboard.Attendee{
			TicketID:       "TKT-" + db.nextID(),
			Status:         dashboard.StatusPending,
			ApprovalStatus: approval,
			Registered:     nowFunc().UTC(),
			CheckedInDates: make(map[string]time.Time),
		},
	}
	if usr != nil {
		a.username = usr.Username
		a.Name = usr.FullName()
		a.Email = usr.Email
	}
	row.attendees = append(row.attendees, a)
	return a
}

func (row *eventRow) attendee(ticketID string) *attendeeRow {
	for _, a := range row.attendees {
		if a.TicketID == ticketID {
			return a
		}
	}
	return nil
}

func (row *eventRow) attendeeOf(username string) *attendeeRow {
	for _, a := range row.attendees {
		if a.username == username {
			return a
		}
	}
	return nil
}

func (row *eventRow) listing() event.Event {
	e := row.Event
	e.Tags = append([]string(nil), e.Tags...)
	e.Host = append([]string(nil), e.Host...)
	e.Registered = len(row.attendees)
	e.Popularity += len(row.attendees)
	return e
}
