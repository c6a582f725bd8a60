package notification

import "time"

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	EventID   string    `json:"event_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Inbox is the notification list with its unread count.
type Inbox struct {
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}

func newInbox(items []Notification) Inbox {
	in := Inbox{Items: items}
	if in.Items == nil {
		in.Items = []Notification{}
	}
	for _, n := range in.Items {
		if !n.IsRead {
			in.Unread++
		}
	}
	return in
}
