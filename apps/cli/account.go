package main

import (
	"context"
	"fmt"
	"syscall"

	"github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/apps"
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
)

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flags("login")
	uname := fs.String("username", "", "Your username. The password will be prompted next.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uname == "" {
		fs.Usage()
		return apps.MissingArgument("username")
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return apps.NewArgumentError("password", "cannot be empty")
	}

	usr, err := cli.session.Login(ctx, user.Credentials{Username: *uname, Password: string(pwd)})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Logged in as %s (%s)\n", usr.FullName(), usr.Role)
	return nil
}

func (cli *commandLine) logout(ctx context.Context, _ []string) error {
	if err := cli.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Logged out")
	return nil
}

func (cli *commandLine) whoami(ctx context.Context, _ []string) error {
	usr, err := cli.session.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s\t%s <%s>\t%s\n", usr.Username, usr.FullName(), usr.Email, usr.Role)
	return nil
}
