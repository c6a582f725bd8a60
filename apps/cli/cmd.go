package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/term"

	"github.com/RTBS-ISP/UniPlus-sub000/apps"
	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/admin"
	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	"github.com/RTBS-ISP/UniPlus-sub000/core/notification"
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// suggestionCutoff is the minimal similarity for "did you mean" hints.
const suggestionCutoff = 0.6

type repositories struct {
	users         user.Repository
	events        event.Repository
	dashboard     dashboard.Repository
	notifications notification.Repository
	admin         admin.Repository
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string) error
}

type commandLine struct {
	out        io.Writer
	repos      repositories
	validate   *validator.Validate
	translator ut.Translator
	alerts     *core.Alerts
	pageSize   int

	session  *user.Session
	events   *event.Service
	inbox    *notification.Service
	admin    *admin.Service
	commands []command
}

func newCommandLine(out io.Writer, repos repositories, pageSize int) *commandLine {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	cli := &commandLine{
		out:        out,
		repos:      repos,
		validate:   validate,
		translator: translator,
		alerts:     core.NewAlerts(nil),
		pageSize:   pageSize,
	}
	cli.session = user.NewSession(repos.users, validate, translator)
	cli.events = event.NewService(repos.events, validate, translator)
	cli.inbox = notification.NewService(repos.notifications, cli.alerts)
	cli.admin = admin.NewService(repos.admin, cli.session, cli.alerts)
	cli.commands = []command{
		{"login", "login -username USERNAME - log in; the password is prompted next", cli.login},
		{"logout", "logout - end the session", cli.logout},
		{"whoami", "whoami - show the logged in user", cli.whoami},
		{"events", "events [-q TEXT] [-category C] [-host H] [-location L] [-from DATE] [-to DATE] [-sort recent|popular|upcoming] [-page N] [-size N] - browse events", cli.browse},
		{"event", "event -id ID - show an event and its schedule", cli.showEvent},
		{"register", "register -id ID - register for an event", cli.register},
		{"tickets", "tickets - list your tickets", cli.tickets},
		{"comments", "comments -id ID - list the comments of an event", cli.comments},
		{"comment", "comment -id ID -text TEXT - comment an event", cli.comment},
		{"rate", "rate -id ID -score 1..5 [-text TEXT] - rate an attended event", cli.rate},
		{"create-event", "create-event -file event.json [-image PATH] - submit an event for approval", cli.createEvent},
		{"dashboard", "dashboard -id ID [-view approval|attendance] [-date DATE] [-status S] [-search TEXT] - show the organizer dashboard", cli.dashboard},
		{"approve", "approve -id ID -ticket TICKET - approve a registration", cli.decide(dashboard.ActionApprove)},
		{"reject", "reject -id ID -ticket TICKET - reject a registration", cli.decide(dashboard.ActionReject)},
		{"bulk", "bulk -id ID -action approve|reject -tickets T1,T2 - decide several registrations", cli.bulk},
		{"checkin", "checkin -id ID -date DATE (-ticket TICKET | -qr PAYLOAD) - check an attendee in", cli.checkIn},
		{"notifications", "notifications - list your notifications", cli.notifications},
		{"read", "read -ids N1,N2 - mark notifications as read", cli.markRead},
		{"read-all", "read-all - mark every notification as read", cli.markAllRead},
		{"delete-notification", "delete-notification -id ID - delete a notification", cli.deleteNotification},
		{"admin-pending", "admin-pending - list the events awaiting approval", cli.adminPending},
		{"admin-approve", "admin-approve -id ID - publish an event", cli.adminDecide(admin.DecisionApprove)},
		{"admin-reject", "admin-reject -id ID -reason TEXT - reject an event", cli.adminDecide(admin.DecisionReject)},
	}
	return cli
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	for _, cmd := range cli.commands {
		fmt.Fprintf(cli.out, "  %s\n", cmd.usage)
	}
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	name := strings.ToLower(args[1])
	for _, cmd := range cli.commands {
		if cmd.name == name {
			err := cmd.run(ctx, args[2:])
			cli.printAlerts()
			if errors.Is(err, flag.ErrHelp) {
				return errHelp
			}
			return err
		}
	}

	cli.printUsage()
	if s := cli.suggest(name); s != "" {
		return apps.NewArgumentError("", fmt.Sprintf("unknown command %q, did you mean %q?", name, s))
	}
	return apps.NewArgumentError("", fmt.Sprintf("unknown command %q", name))
}

// suggest returns the known command closest to name.
func (cli *commandLine) suggest(name string) string {
	type match struct {
		name  string
		ratio float64
	}
	matches := make([]match, 0, len(cli.commands))
	for _, cmd := range cli.commands {
		ratio := difflib.NewMatcher(strings.Split(name, ""), strings.Split(cmd.name, "")).Ratio()
		if ratio >= suggestionCutoff {
			matches = append(matches, match{cmd.name, ratio})
		}
	}
	if len(matches) == 0 {
		return ""
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].ratio > matches[j].ratio })
	return matches[0].name
}

func (cli *commandLine) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) printAlerts() {
	for _, a := range cli.alerts.Drain() {
		fmt.Fprintf(cli.out, "[%s] %s\n", a.Level, a.Message)
	}
}

func (cli *commandLine) table(header ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	return w
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
