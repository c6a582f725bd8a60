package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/apps"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
)

func (cli *commandLine) browse(ctx context.Context, args []string) error {
	fs := cli.flags("events")
	text := fs.String("q", "", "Free text search on title, excerpt and tags")
	var f event.Filter
	fs.StringVar(&f.Category, "category", "", "Category or tag")
	fs.StringVar(&f.Host, "host", "", "Host name")
	fs.StringVar(&f.Location, "location", "", "Location")
	fs.StringVar(&f.DateFrom, "from", "", "Earliest date (YYYY-MM-DD)")
	fs.StringVar(&f.DateTo, "to", "", "Latest date (YYYY-MM-DD)")
	sortKey := fs.String("sort", string(event.SortRecent), "recent, popular or upcoming")
	page := fs.Int("page", 1, "Page number")
	size := fs.Int("size", cli.pageSize, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	state := event.NewQueryState(*size)
	state.SetText(*text)
	state.SetFilter(f)
	state.SetSort(event.ParseSortKey(*sortKey))
	state.SetPage(*page)

	res, err := cli.events.Browse(ctx, state.Query())
	if err != nil {
		return err
	}
	if res.Empty() {
		fmt.Fprintln(cli.out, "No events found")
		return nil
	}
	w := cli.table("ID", "TITLE", "CATEGORY", "HOST", "DATE", "LOCATION", "POPULARITY")
	for _, e := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			e.ID, e.Title, e.Category, e.PrimaryHost(), e.StartDate, e.Location, e.Popularity)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Page %d/%d (%d events)\n", res.Page, res.TotalPages, res.Total)
	return nil
}

func (cli *commandLine) eventID(name string, args []string, extra func(*flag.FlagSet)) (string, error) {
	fs := cli.flags(name)
	id := fs.String("id", "", "Event id")
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *id == "" {
		fs.Usage()
		return "", apps.MissingArgument("id")
	}
	return *id, nil
}

func (cli *commandLine) showEvent(ctx context.Context, args []string) error {
	id, err := cli.eventID("event", args, nil)
	if err != nil {
		return err
	}
	d, err := cli.events.Detail(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s [%s]\n", d.Title, d.Category)
	if len(d.Host) > 0 {
		fmt.Fprintf(cli.out, "Hosted by %s\n", strings.Join(d.Host, ", "))
	}
	if d.Excerpt != "" {
		fmt.Fprintln(cli.out, d.Excerpt)
	}
	if len(d.Audience.HostTags) > 0 {
		fmt.Fprintf(cli.out, "Tags: %s\n", strings.Join(d.Audience.HostTags, ", "))
	}
	for _, el := range d.Audience.Eligibility {
		fmt.Fprintf(cli.out, "Open to: %s\n", el)
	}
	fmt.Fprintln(cli.out, "Schedule:")
	for _, g := range d.Groups {
		fmt.Fprintf(cli.out, "  %s\n", g.Label)
	}
	if d.Capacity > 0 {
		fmt.Fprintf(cli.out, "Seats: %d/%d\n", d.Registered, d.Capacity)
	}
	if d.AverageScore > 0 {
		fmt.Fprintf(cli.out, "Rating: %.1f/5\n", d.AverageScore)
	}
	if d.IsRegistered {
		fmt.Fprintln(cli.out, "You are registered")
	}
	return nil
}

func (cli *commandLine) register(ctx context.Context, args []string) error {
	id, err := cli.eventID("register", args, nil)
	if err != nil {
		return err
	}
	t, err := cli.events.Register(ctx, id)
	if err != nil {
		if errors.Cause(err) == event.ErrAlreadyRegistered {
			cli.alerts.Info("You are already registered for event %s", id)
			return nil
		}
		return err
	}
	cli.alerts.Success("Registered: ticket %s (%s)", t.TicketID, t.ApprovalStatus)
	return nil
}

func (cli *commandLine) tickets(ctx context.Context, _ []string) error {
	ts, err := cli.events.Tickets(ctx)
	if err != nil {
		return err
	}
	if len(ts) == 0 {
		fmt.Fprintln(cli.out, "No tickets")
		return nil
	}
	w := cli.table("TICKET", "EVENT", "APPROVAL", "STATUS")
	for _, t := range ts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.TicketID, t.EventTitle, t.ApprovalStatus, t.Status)
	}
	return w.Flush()
}

func (cli *commandLine) comments(ctx context.Context, args []string) error {
	id, err := cli.eventID("comments", args, nil)
	if err != nil {
		return err
	}
	cs, err := cli.events.Comments(ctx, id)
	if err != nil {
		return err
	}
	for _, c := range cs {
		fmt.Fprintf(cli.out, "%s (%s): %s\n", c.Author, c.CreatedAt.Format("2006-01-02 15:04"), c.Content)
	}
	return nil
}

func (cli *commandLine) comment(ctx context.Context, args []string) error {
	var text *string
	id, err := cli.eventID("comment", args, func(fs *flag.FlagSet) { text = fs.String("text", "", "Comment") })
	if err != nil {
		return err
	}
	if _, err := cli.events.AddComment(ctx, id, event.NewComment{Content: *text}); err != nil {
		return err
	}
	cli.alerts.Success("Comment posted")
	return nil
}

func (cli *commandLine) rate(ctx context.Context, args []string) error {
	var (
		score *int
		text  *string
	)
	id, err := cli.eventID("rate", args, func(fs *flag.FlagSet) {
		score = fs.Int("score", 0, "Score from 1 to 5")
		text = fs.String("text", "", "Optional review")
	})
	if err != nil {
		return err
	}
	if err := cli.events.Rate(ctx, id, event.NewRating{Score: *score, Comment: *text}); err != nil {
		return err
	}
	cli.alerts.Success("Thanks for rating!")
	return nil
}

func (cli *commandLine) createEvent(ctx context.Context, args []string) error {
	fs := cli.flags("create-event")
	file := fs.String("file", "", "JSON file describing the event")
	imagePath := fs.String("image", "", "Optional cover picture (png, jpeg or gif)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return apps.MissingArgument("file")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return errors.Wrap(err, "reading event file")
	}
	var ne event.NewEvent
	if err := json.Unmarshal(data, &ne); err != nil {
		return errors.Wrap(err, "decoding event file")
	}

	var img *event.Image
	if *imagePath != "" {
		f, err := os.Open(*imagePath)
		if err != nil {
			return errors.Wrap(err, "opening image")
		}
		defer f.Close()
		if img, err = imageOf(f); err != nil {
			return err
		}
	}

	created, err := cli.events.Create(ctx, ne, img)
	if err != nil {
		return err
	}
	cli.alerts.Success("Event %s submitted, status: %s", created.ID, created.Status)
	return nil
}

// imageOf sniffs the content type of f.
func imageOf(f *os.File) (*event.Image, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "reading image info")
	}
	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "reading image")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewinding image")
	}
	return &event.Image{
		Filename:    filepath.Base(f.Name()),
		ContentType: http.DetectContentType(head[:n]),
		Size:        info.Size(),
		Content:     f,
	}, nil
}
