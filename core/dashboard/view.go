package dashboard

import (
	"github.com/RTBS-ISP/UniPlus-sub000/core"
)

// VisibleAttendees derives the rows of the current view.
//
// The attendance view only lists approved registrations and shows their
// status for the selected date: someone checked in on another day is pending
// here. The approval view lists everyone with their approval status. Both then
// apply the free-text search and the status filter.
func (d *Dashboard) VisibleAttendees() []Row {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visibleLocked()
}

func (d *Dashboard) visibleLocked() []Row {
	rows := make([]Row, 0, len(d.snap.Attendees))
	for _, a := range d.snap.Attendees {
		var row Row
		switch d.view {
		case ViewAttendance:
			if a.ApprovalStatus != ApprovalApproved {
				continue
			}
			row = attendanceRow(a, d.date)
		default:
			row = Row{Attendee: a.clone(), DisplayStatus: a.ApprovalStatus}
		}
		if !matchSearch(a, d.search) {
			continue
		}
		if d.status != "" && row.DisplayStatus != d.status {
			continue
		}
		row.Selected = d.selection[a.TicketID]
		rows = append(rows, row)
	}
	return rows
}

func attendanceRow(a Attendee, date string) Row {
	row := Row{Attendee: a.clone()}
	if date == "" {
		row.DisplayStatus = a.Status
		return row
	}
	if t, ok := a.CheckedInDates[date]; ok {
		t := t
		row.DisplayStatus = StatusPresent
		row.CheckedInAt = &t
	} else {
		row.DisplayStatus = StatusPending
	}
	return row
}

func matchSearch(a Attendee, search string) bool {
	if search == "" {
		return true
	}
	return core.ContainsFold(a.Name, search) ||
		core.ContainsFold(a.Email, search) ||
		core.ContainsFold(a.TicketID, search)
}
