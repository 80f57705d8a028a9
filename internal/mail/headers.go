// Package mail translates hook-style mail arguments (recipients, raw header lines)
// into the fields the sending API understands.
package mail

import (
	"regexp"
	"strings"
)

// Header names the API cares about, lower case.
const (
	HeaderFrom        = "from"
	HeaderReplyTo     = "reply-to"
	HeaderCC          = "cc"
	HeaderBCC         = "bcc"
	HeaderContentType = "content-type"
)

var (
	angleAddr = regexp.MustCompile(`<(.+?)>`)
	nameAddr  = regexp.MustCompile(`^(.*?)\s*<(.+?)>`)
)

// Headers holds the recognized header values. A later line overrides an earlier one.
type Headers struct {
	From        string
	ReplyTo     string
	CC          string
	BCC         string
	ContentType string
}

// IsHTML reports whether the content type declares text/html.
func (h Headers) IsHTML() bool {
	return strings.Contains(strings.ToLower(h.ContentType), "text/html")
}

// SplitHeaders splits a raw header block on CRLF or LF.
func SplitHeaders(raw string) []string {
	if raw == "" {
		return nil
	}

	return strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
}

func splitLine(line string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(strings.TrimSpace(line), ":")
	if !ok {
		return "", "", false
	}

	return strings.TrimSpace(name), strings.TrimSpace(value), true
}

// ParseHeaders extracts from, reply-to, cc, bcc and content-type.
// Lines without a colon and unknown names are ignored.
func ParseHeaders(lines []string) Headers {
	var h Headers

	for _, line := range lines {
		name, value, ok := splitLine(line)
		if !ok {
			continue
		}

		switch strings.ToLower(name) {
		case HeaderFrom:
			h.From = value
		case HeaderReplyTo:
			h.ReplyTo = value
		case HeaderCC:
			h.CC = value
		case HeaderBCC:
			h.BCC = value
		case HeaderContentType:
			h.ContentType = value
		}
	}

	return h
}

// NormalizeHeaders drops lines without a colon and moves the last Content-Type to the front.
func NormalizeHeaders(lines []string) []string {
	var (
		contentType string
		out         = make([]string, 0, len(lines))
	)

	for _, line := range lines {
		name, value, ok := splitLine(line)
		if !ok {
			continue
		}

		if strings.EqualFold(name, HeaderContentType) {
			contentType = value
			continue
		}

		out = append(out, line)
	}

	if contentType != "" {
		out = append([]string{"Content-Type: " + contentType}, out...)
	}

	return out
}

// CleanAddress returns the part inside angle brackets, or the trimmed input.
func CleanAddress(addr string) string {
	if m := angleAddr.FindStringSubmatch(addr); m != nil {
		return strings.TrimSpace(m[1])
	}

	return strings.TrimSpace(addr)
}

// CleanAddressList splits a comma separated header value and cleans each address.
func CleanAddressList(value string) []string {
	var out []string

	for _, part := range SplitAddresses(value) {
		if addr := CleanAddress(part); addr != "" {
			out = append(out, addr)
		}
	}

	return out
}

// ParseFrom splits "Name <addr>" into its parts. A bare address has no name.
func ParseFrom(value string) (name, addr string) {
	if m := nameAddr.FindStringSubmatch(value); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}

	return "", strings.TrimSpace(value)
}

// FormatFrom builds a From header line.
func FormatFrom(name, addr string) string {
	if name == "" {
		return "From: " + addr
	}

	return "From: " + name + " <" + addr + ">"
}

func isFromLine(line string) bool {
	return len(line) >= 5 && strings.EqualFold(line[:5], "from:")
}

// FromOverride carries the sender rules of the mail settings.
type FromOverride struct {
	FromEmail      string
	FromName       string
	ForceFromEmail bool
	ForceFromName  bool
}

// Apply rewrites the From headers:
//   - ForceFromEmail with a FromEmail set drops every From line and appends
//     one built from FromEmail (and FromName when ForceFromName is set).
//   - otherwise ForceFromName renames existing From lines that carry an
//     address in angle brackets; no line is added.
func (o FromOverride) Apply(lines []string) []string {
	out := make([]string, 0, len(lines)+1)

	switch {
	case o.ForceFromEmail && o.FromEmail != "":
		for _, line := range lines {
			if !isFromLine(line) {
				out = append(out, line)
			}
		}

		if o.ForceFromName {
			out = append(out, "From: "+o.FromName+" <"+o.FromEmail+">")
		} else {
			out = append(out, FormatFrom("", o.FromEmail))
		}
	case o.ForceFromEmail:
		out = append(out, lines...)
	case o.ForceFromName:
		for _, line := range lines {
			if isFromLine(line) {
				if m := angleAddr.FindStringSubmatch(line); m != nil {
					line = "From: " + o.FromName + " <" + m[1] + ">"
				}
			}

			out = append(out, line)
		}
	default:
		out = append(out, lines...)
	}

	return out
}
