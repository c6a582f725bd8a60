package echoweb

import (
	"net/http"

	"github.com/RTBS-ISP/UniPlus-sub000/core/admin"
	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	"github.com/RTBS-ISP/UniPlus-sub000/core/notification"
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
	inmemdb "github.com/RTBS-ISP/UniPlus-sub000/storage/inmem"
	"github.com/RTBS-ISP/UniPlus-sub000/storage/restapi"
)

type (
	// Repositories are bound to one browser session.
	Repositories struct {
		Users         user.Repository
		Events        event.Repository
		Dashboard     dashboard.Repository
		Notifications notification.Repository
		Admin         admin.Repository
	}

	// Conn is the API connection of one request.
	Conn struct {
		Repositories
		// Cookies returns the API session cookies once the request is handled.
		Cookies func() []*http.Cookie
	}

	// Backend opens the API connection of a browser request from its cookies.
	Backend interface {
		Connect(r *http.Request) (Conn, error)
	}
)

type restBackend struct {
	client *restapi.Client
}

// NewRESTBackend forwards the browser cookies to the UniPlus API through client.
func NewRESTBackend(client *restapi.Client) Backend {
	return &restBackend{client: client}
}

func (b *restBackend) Connect(r *http.Request) (Conn, error) {
	c, err := b.client.WithCookies(r.Cookies())
	if err != nil {
		return Conn{}, err
	}
	return Conn{
		Repositories: Repositories{
			Users:         restapi.NewUserRepository(c),
			Events:        restapi.NewEventRepository(c),
			Dashboard:     restapi.NewDashboardRepository(c),
			Notifications: restapi.NewNotificationRepository(c),
			Admin:         restapi.NewAdminRepository(c),
		},
		Cookies: c.Cookies,
	}, nil
}

type memoryBackend struct {
	db *inmemdb.DB
}

// NewMemoryBackend serves the in-memory DB, for tests and demos.
func NewMemoryBackend(db *inmemdb.DB) Backend {
	return &memoryBackend{db: db}
}

func (b *memoryBackend) Connect(r *http.Request) (Conn, error) {
	var token string
	if ck, err := r.Cookie(inmemdb.SessionCookie); err == nil {
		token = ck.Value
	}
	conn := b.db.Connect(token)
	return Conn{
		Repositories: Repositories{
			Users:         inmemdb.NewUserRepository(conn),
			Events:        inmemdb.NewEventRepository(conn),
			Dashboard:     inmemdb.NewDashboardRepository(conn),
			Notifications: inmemdb.NewNotificationRepository(conn),
			Admin:         inmemdb.NewAdminRepository(conn),
		},
		Cookies: conn.Cookies,
	}, nil
}
