package event

import (
	"sort"
	"strings"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
)

type SortKey string

const (
	SortRecent   SortKey = "recent"
	SortPopular  SortKey = "popular"
	SortUpcoming SortKey = "upcoming"

	DefaultPageSize = 12
)

// ParseSortKey returns the SortKey named by s, defaulting to SortRecent.
func ParseSortKey(s string) SortKey {
	switch SortKey(core.CleanString(s, true /* lower */)) {
	case SortPopular:
		return SortPopular
	case SortUpcoming:
		return SortUpcoming
	default:
		return SortRecent
	}
}

// Filter applies AND operation on its non-empty fields.
type Filter struct {
	Category string `json:"category" query:"category"`
	Host     string `json:"host" query:"host"`
	DateFrom string `json:"date_from" query:"date_from"`
	DateTo   string `json:"date_to" query:"date_to"`
	Location string `json:"location" query:"location"`
}

func (f Filter) IsEmpty() bool {
	return f.Category == "" && f.Host == "" && f.DateFrom == "" && f.DateTo == "" && f.Location == ""
}

func (f *Filter) Clean() {
	f.Category = core.CleanString(f.Category)
	f.Host = core.CleanString(f.Host)
	f.DateFrom = core.DatePart(f.DateFrom)
	f.DateTo = core.DatePart(f.DateTo)
	f.Location = core.CleanString(f.Location)
}

type Query struct {
	Text     string  `json:"q" query:"q"`
	Filter   Filter  `json:"filter"`
	Sort     SortKey `json:"sort" query:"sort"`
	Page     int     `json:"page" query:"page"`
	PageSize int     `json:"page_size" query:"page_size"`
}

type Page struct {
	Items      []Event `json:"items"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
}

// Empty reports whether the page holds no result; callers render a "no results" state.
func (p Page) Empty() bool { return len(p.Items) == 0 }

// Match reports whether e satisfies the text query and every active filter.
func Match(e Event, text string, f Filter) bool {
	if text = strings.TrimSpace(text); text != "" && !matchText(e, text) {
		return false
	}
	if f.Category != "" && !matchCategory(e, f.Category) {
		return false
	}
	if f.Host != "" && !strings.EqualFold(strings.TrimSpace(e.PrimaryHost()), f.Host) {
		return false
	}
	if f.DateFrom != "" {
		start := core.DatePart(e.StartDate)
		if start == "" || start < core.DatePart(f.DateFrom) {
			return false
		}
	}
	if f.DateTo != "" {
		end := core.DatePart(e.EndDate)
		if end == "" || end > core.DatePart(f.DateTo) {
			return false
		}
	}
	if f.Location != "" && !core.ContainsFold(e.Location, f.Location) {
		return false
	}
	return true
}

func matchText(e Event, text string) bool {
	if core.ContainsFold(e.Title, text) || core.ContainsFold(e.Excerpt, text) {
		return true
	}
	for _, tag := range e.Tags {
		if core.ContainsFold(tag, text) {
			return true
		}
	}
	for _, h := range e.Host {
		if core.ContainsFold(h, text) {
			return true
		}
	}
	return false
}

func matchCategory(e Event, category string) bool {
	if strings.EqualFold(strings.TrimSpace(e.Category), category) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.EqualFold(strings.TrimSpace(tag), category) {
			return true
		}
	}
	return false
}

// FilterEvents returns the events matching text and f, in input order.
func FilterEvents(events []Event, text string, f Filter) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if Match(e, text, f) {
			out = append(out, e)
		}
	}
	return out
}

// SortEvents returns a sorted copy of events. The sort is stable.
func SortEvents(events []Event, key SortKey) []Event {
	out := make([]Event, len(events))
	copy(out, events)

	var less func(a, b Event) bool
	switch key {
	case SortPopular:
		less = func(a, b Event) bool { return a.Popularity > b.Popularity }
	case SortUpcoming:
		// events without a date go last
		less = func(a, b Event) bool {
			if a.Date == "" || b.Date == "" {
				return a.Date != "" && b.Date == ""
			}
			return a.Date < b.Date
		}
	default:
		less = func(a, b Event) bool { return a.CreatedAt > b.CreatedAt }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// TotalPages is max(1, ceil(total/size)).
func TotalPages(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// Paginate slices events; page is clamped into [1, TotalPages].
func Paginate(events []Event, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(events)
	pages := TotalPages(total, size)
	if page < 1 {
		page = 1
	} else if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	items := make([]Event, 0, end-start)
	items = append(items, events[start:end]...)

	return Page{
		Items:      items,
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: pages,
	}
}

// Run filters, sorts then paginates events.
func Run(events []Event, q Query) Page {
	q.Filter.Clean()
	filtered := FilterEvents(events, q.Text, q.Filter)
	return Paginate(SortEvents(filtered, ParseSortKey(string(q.Sort))), q.Page, q.PageSize)
}

// QueryState is the ephemeral search state of a listing page.
// Any change other than the page itself resets the page to 1.
type QueryState struct {
	q Query
}

func NewQueryState(pageSize int) *QueryState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &QueryState{q: Query{Sort: SortRecent, Page: 1, PageSize: pageSize}}
}

func (s *QueryState) Query() Query { return s.q }

func (s *QueryState) SetText(text string) {
	s.q.Text = text
	s.q.Page = 1
}

func (s *QueryState) SetFilter(f Filter) {
	s.q.Filter = f
	s.q.Page = 1
}

func (s *QueryState) SetSort(key SortKey) {
	s.q.Sort = key
	s.q.Page = 1
}

func (s *QueryState) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	s.q.PageSize = size
	s.q.Page = 1
}

func (s *QueryState) SetPage(page int) {
	s.q.Page = page
}

// Apply runs the pipeline and stores the clamped page back into the state.
func (s *QueryState) Apply(events []Event) Page {
	p := Run(events, s.q)
	s.q.Page = p.Page
	return p
}
