package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/apps"
	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
)

// loadDashboard returns the loaded dashboard of an event, on date when given.
func (cli *commandLine) loadDashboard(ctx context.Context, id, date string) (*dashboard.Dashboard, error) {
	d := dashboard.New(id, cli.repos.dashboard, cli.alerts)
	if err := d.Load(ctx); err != nil {
		return nil, err
	}
	if date != "" {
		if err := d.SelectDate(date); err != nil {
			return nil, apps.NewArgumentError("date", err.Error())
		}
	}
	return d, nil
}

func (cli *commandLine) dashboard(ctx context.Context, args []string) error {
	var view, date, status, search *string
	id, err := cli.eventID("dashboard", args, func(fs *flag.FlagSet) {
		view = fs.String("view", string(dashboard.ViewApproval), "approval or attendance")
		date = fs.String("date", "", "Schedule date of the attendance view (YYYY-MM-DD)")
		status = fs.String("status", "all", "Only show rows with this status")
		search = fs.String("search", "", "Search on name, email or ticket")
	})
	if err != nil {
		return err
	}
	d, err := cli.loadDashboard(ctx, id, *date)
	if err != nil {
		return err
	}
	d.SetView(dashboard.ParseView(*view))
	d.SetStatusFilter(*status)
	d.SetSearch(*search)

	st, err := d.State()
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s: %d registered, %d approved, %d pending, %d rejected, %d checked in\n",
		st.Event.Title, st.Stats.Total, st.Stats.Approved, st.Stats.Pending, st.Stats.Rejected, st.Stats.CheckedIn)
	if st.View == dashboard.ViewAttendance {
		fmt.Fprintf(cli.out, "Attendance on %s\n", st.SelectedDate)
	}
	if len(st.Rows) == 0 {
		fmt.Fprintln(cli.out, "No attendees")
		return nil
	}
	w := cli.table("TICKET", "NAME", "EMAIL", "STATUS", "CHECKED IN")
	for _, r := range st.Rows {
		checkedIn := "-"
		if r.CheckedInAt != nil {
			checkedIn = r.CheckedInAt.Local().Format("15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.TicketID, r.Name, r.Email, r.DisplayStatus, checkedIn)
	}
	return w.Flush()
}

func (cli *commandLine) decide(action dashboard.Action) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		var ticket *string
		id, err := cli.eventID(string(action), args, func(fs *flag.FlagSet) {
			ticket = fs.String("ticket", "", "Ticket id of the registration")
		})
		if err != nil {
			return err
		}
		if *ticket == "" {
			return apps.MissingArgument("ticket")
		}
		d, err := cli.loadDashboard(ctx, id, "")
		if err != nil {
			return err
		}
		return d.ApproveReject(ctx, *ticket, action)
	}
}

func (cli *commandLine) bulk(ctx context.Context, args []string) error {
	var actionName, tickets *string
	id, err := cli.eventID("bulk", args, func(fs *flag.FlagSet) {
		actionName = fs.String("action", "", "approve or reject")
		tickets = fs.String("tickets", "", "Comma separated ticket ids")
	})
	if err != nil {
		return err
	}
	action, ok := dashboard.ParseAction(*actionName)
	if !ok {
		return apps.NewArgumentError("action", "must be approve or reject")
	}
	ids := splitList(*tickets)
	if len(ids) == 0 {
		return apps.MissingArgument("tickets")
	}
	d, err := cli.loadDashboard(ctx, id, "")
	if err != nil {
		return err
	}
	d.Select(ids...)
	_, err = d.BulkAct(ctx, action)
	return err
}

func (cli *commandLine) checkIn(ctx context.Context, args []string) error {
	var date, ticket, qr *string
	id, err := cli.eventID("checkin", args, func(fs *flag.FlagSet) {
		date = fs.String("date", "", "Schedule date (YYYY-MM-DD); defaults to the first one")
		ticket = fs.String("ticket", "", "Ticket id")
		qr = fs.String("qr", "", "Scanned QR code payload")
	})
	if err != nil {
		return err
	}
	if (*ticket == "") == (*qr == "") {
		return apps.NewArgumentError("ticket", "or -qr is required, not both")
	}
	d, err := cli.loadDashboard(ctx, id, *date)
	if err != nil {
		return err
	}

	var res dashboard.CheckInResult
	if *qr != "" {
		res, err = d.CheckInQR(ctx, *qr)
	} else {
		res, err = d.CheckIn(ctx, *ticket)
	}
	if err != nil {
		return errors.Wrap(err, "checking in")
	}
	fmt.Fprintf(cli.out, "%s at %s\n", d.SelectedDate(), res.CheckedInAt.Local().Format("15:04"))
	return nil
}
