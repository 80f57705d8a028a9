package mail

import (
	"encoding/json"
	"strings"
)

// AddressList decodes from a JSON string or array of strings.
// A string is split with SplitAddresses.
type AddressList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *AddressList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = SplitAddresses(one)
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err //nolint:wrapcheck
	}

	*l = many

	return nil
}

// HeaderList decodes from a raw header block or an array of lines.
type HeaderList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *HeaderList) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*l = SplitHeaders(raw)
		return nil
	}

	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err //nolint:wrapcheck
	}

	*l = lines

	return nil
}

// SplitAddresses splits a comma separated address list. Commas inside
// quotes or angle brackets do not split, so "Doe, John" <j@example.com> stays whole.
func SplitAddresses(s string) []string {
	var (
		out     []string
		quoted  bool
		angle   bool
		escaped bool
		start   int
	)

	add := func(part string) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"' && !angle:
			quoted = !quoted
		case r == '<' && !quoted:
			angle = true
		case r == '>' && !quoted:
			angle = false
		case r == ',' && !quoted && !angle:
			add(s[start:i])
			start = i + 1
		}
	}

	add(s[start:])

	return out
}

// Envelope is one message as handed to the dispatch pipeline.
// Attachments are accepted and ignored.
type Envelope struct {
	To          AddressList `json:"to"`
	Subject     string      `json:"subject"`
	Message     string      `json:"message"`
	Headers     HeaderList  `json:"headers"`
	Attachments []string    `json:"attachments"`
}

// Recipients joins the recipients the way they are logged.
func (e Envelope) Recipients() string {
	return strings.Join(e.To, ", ")
}
