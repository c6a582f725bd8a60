package dashboard

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

var errEmptyQR = errors.New("empty QR payload")

// ParseTicketQR extracts the ticket id from a scanned QR payload. Tickets encode
// either the bare id, a check-in URL carrying a `ticket` or `ticket_id` query
// parameter (or ending with the id), or a JSON object with `ticket_id`/`ticketId`.
func ParseTicketQR(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", errEmptyQR
	}

	if strings.HasPrefix(payload, "{") {
		var data struct {
			TicketID      string `json:"ticket_id"`
			TicketIDCamel string `json:"ticketId"`
		}
		if err := json.Unmarshal([]byte(payload), &data); err != nil {
			return "", err
		}
		if data.TicketID != "" {
			return data.TicketID, nil
		}
		if data.TicketIDCamel != "" {
			return data.TicketIDCamel, nil
		}
		return "", errors.New("QR payload has no ticket id")
	}

	if strings.Contains(payload, "://") {
		u, err := url.Parse(payload)
		if err != nil {
			return "", err
		}
		for _, key := range []string{"ticket_id", "ticket", "ticketId"} {
			if v := u.Query().Get(key); v != "" {
				return v, nil
			}
		}
		if last := strings.Trim(u.Path, "/"); last != "" {
			parts := strings.Split(last, "/")
			return parts[len(parts)-1], nil
		}
		return "", errors.New("QR URL has no ticket id")
	}

	return payload, nil
}
