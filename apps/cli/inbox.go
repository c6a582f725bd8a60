package main

import (
	"context"
	"fmt"

	"github.com/RTBS-ISP/UniPlus-sub000/apps"
)

func (cli *commandLine) notifications(ctx context.Context, _ []string) error {
	in, err := cli.inbox.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d unread\n", in.Unread)
	if len(in.Items) == 0 {
		return nil
	}
	w := cli.table("ID", "", "DATE", "TITLE", "MESSAGE")
	for _, n := range in.Items {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n.ID, mark, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Title, n.Message)
	}
	return w.Flush()
}

func (cli *commandLine) markRead(ctx context.Context, args []string) error {
	fs := cli.flags("read")
	ids := fs.String("ids", "", "Comma separated notification ids")
	if err := fs.Parse(args); err != nil {
		return err
	}
	list := splitList(*ids)
	if len(list) == 0 {
		fs.Usage()
		return apps.MissingArgument("ids")
	}
	if _, err := cli.inbox.Refresh(ctx); err != nil {
		return err
	}
	return cli.inbox.MarkRead(ctx, list...)
}

func (cli *commandLine) markAllRead(ctx context.Context, _ []string) error {
	if _, err := cli.inbox.Refresh(ctx); err != nil {
		return err
	}
	return cli.inbox.MarkAllRead(ctx)
}

func (cli *commandLine) deleteNotification(ctx context.Context, args []string) error {
	fs := cli.flags("delete-notification")
	id := fs.String("id", "", "Notification id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return apps.MissingArgument("id")
	}
	if _, err := cli.inbox.Refresh(ctx); err != nil {
		return err
	}
	return cli.inbox.Delete(ctx, *id)
}
