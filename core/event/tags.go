package event

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
)

// MaxEncodedTagsLen is the size of the API's `tags` column.
const MaxEncodedTagsLen = 255

const eligibilityPrefix = "@"

// Eligibility restricts registration to a faculty and, optionally, a study year.
type Eligibility struct {
	Faculty string `json:"faculty"`
	Year    int    `json:"year,omitempty"`
}

func (e Eligibility) String() string {
	if e.Year == 0 {
		return e.Faculty
	}
	return fmt.Sprintf("%s (year %d)", e.Faculty, e.Year)
}

// Audience is the structured form of the event's host tags and eligibility rules.
type Audience struct {
	HostTags    []string      `json:"host_tags"`
	Eligibility []Eligibility `json:"eligibility"`
}

func (a Audience) IsEmpty() bool {
	return len(a.HostTags) == 0 && len(a.Eligibility) == 0
}

// EncodeAudience packs a into the single `tags` string the API stores:
// one CSV record of host tags followed by `@{json}` eligibility fields.
func EncodeAudience(a Audience) (string, error) {
	fields := make([]string, 0, len(a.HostTags)+len(a.Eligibility))
	for _, tag := range a.HostTags {
		tag = core.CleanString(tag)
		if tag == "" {
			continue
		}
		if strings.HasPrefix(tag, eligibilityPrefix) {
			return "", core.NewValidationError(nil, core.FieldError{
				Field: "tags", Error: fmt.Sprintf("tag %q cannot start with %q", tag, eligibilityPrefix),
			})
		}
		fields = append(fields, tag)
	}
	for _, el := range a.Eligibility {
		el.Faculty = core.CleanString(el.Faculty)
		if el.Faculty == "" {
			return "", core.NewValidationError(nil, core.FieldError{Field: "tags", Error: "eligibility requires a faculty"})
		}
		if el.Year < 0 {
			return "", core.NewValidationError(nil, core.FieldError{Field: "tags", Error: "eligibility year cannot be negative"})
		}
		data, err := json.Marshal(el)
		if err != nil {
			return "", errors.Wrap(err, "marshalling eligibility")
		}
		fields = append(fields, eligibilityPrefix+string(data))
	}
	if len(fields) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return "", errors.Wrap(err, "writing tags record")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "flushing tags record")
	}
	encoded := strings.TrimRight(buf.String(), "\r\n")

	if len(encoded) > MaxEncodedTagsLen {
		return "", core.NewValidationError(nil, core.FieldError{
			Field: "tags",
			Error: fmt.Sprintf("tags are too long (%d characters, max %d)", len(encoded), MaxEncodedTagsLen),
		})
	}
	return encoded, nil
}

// DecodeAudience reverses EncodeAudience. A plain comma separated list decodes to host tags.
func DecodeAudience(s string) (Audience, error) {
	var a Audience
	if strings.TrimSpace(s) == "" {
		return a, nil
	}
	r := csv.NewReader(strings.NewReader(s))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	fields, err := r.Read()
	if err != nil {
		// eligibility fields may also be stored unquoted: `go,@{"faculty":"Engineering"}`
		var splitErr error
		if fields, splitErr = splitTags(s); splitErr != nil {
			return a, errors.Wrap(err, "reading tags record")
		}
	}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		switch {
		case f == "":
		case strings.HasPrefix(f, eligibilityPrefix+"{"):
			var el Eligibility
			if err := json.Unmarshal([]byte(f[len(eligibilityPrefix):]), &el); err != nil {
				return a, errors.Wrapf(err, "decoding eligibility %q", f)
			}
			a.Eligibility = append(a.Eligibility, el)
		default:
			a.HostTags = append(a.HostTags, f)
		}
	}
	return a, nil
}

// splitTags splits s on the commas that are neither inside a quoted field
// nor inside a JSON object.
func splitTags(s string) ([]string, error) {
	var (
		fields   []string
		cur      strings.Builder
		depth    int
		quoted   bool
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quoted:
			if c != '"' {
				cur.WriteByte(c)
			} else if i+1 < len(s) && s[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				quoted = false
			}
			continue
		case depth > 0:
			cur.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case inString && c == '\\':
				escaped = true
			case c == '"':
				inString = !inString
			case inString:
			case c == '{':
				depth++
			case c == '}':
				depth--
			}
			continue
		}

		switch c {
		case ',':
			fields = append(fields, cur.String())
			cur.Reset()
			continue
		case '"':
			if strings.TrimSpace(cur.String()) != "" {
				return nil, errors.Errorf("unexpected quote at offset %d", i)
			}
			cur.Reset()
			quoted = true
			continue
		case '{':
			depth++
		}
		cur.WriteByte(c)
	}
	if quoted || depth != 0 {
		return nil, errors.New("unterminated tags field")
	}
	return append(fields, cur.String()), nil
}

// PlainTags returns the human readable tags of an encoded string, for listings.
// Undecodable input is returned as a single tag.
func PlainTags(s string) []string {
	a, err := DecodeAudience(s)
	if err != nil {
		return []string{s}
	}
	tags := append([]string{}, a.HostTags...)
	for _, el := range a.Eligibility {
		tags = append(tags, el.String())
	}
	return tags
}
