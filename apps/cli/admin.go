package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/RTBS-ISP/UniPlus-sub000/core/admin"
)

func (cli *commandLine) adminPending(ctx context.Context, _ []string) error {
	if _, err := cli.session.Refresh(ctx); err != nil {
		return err
	}
	events, err := cli.admin.Pending(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(cli.out, "No event awaiting approval")
		return nil
	}
	w := cli.table("ID", "TITLE", "HOST", "DATE", "SUBMITTED")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Title, e.PrimaryHost(), e.StartDate, e.CreatedAt)
	}
	return w.Flush()
}

func (cli *commandLine) adminDecide(decision admin.Decision) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		var reason *string
		id, err := cli.eventID("admin-"+string(decision), args, func(fs *flag.FlagSet) {
			reason = fs.String("reason", "", "Why the event is rejected")
		})
		if err != nil {
			return err
		}
		if _, err := cli.session.Refresh(ctx); err != nil {
			return err
		}
		return cli.admin.Decide(ctx, id, decision, *reason)
	}
}
