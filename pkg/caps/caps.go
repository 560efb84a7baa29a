// Package caps parses DDC/CI capabilities strings, the parenthesized
// feature inventory returned by a capabilities read, e.g.
//
//	(prot(monitor)type(lcd)model(U2720Q)cmds(01 02 03)
//	 vcp(02 04 10 12 14(05 08))mccs_ver(2.2))
package caps

import (
	"fmt"
	"strconv"
	"strings"
)

// Feature is one VCP feature from the vcp segment, with the value list
// a complex feature advertises.
type Feature struct {
	Code   byte
	Values []byte
}

// Capabilities is a decoded capabilities string.
type Capabilities struct {
	Protocol    string
	Type        string
	Model       string
	MCCSVersion string
	Commands    []byte
	Features    []Feature

	// Unrecognized holds segments this parser has no decoding for,
	// keyed by segment name, so nothing the display said is lost.
	Unrecognized map[string]string
}

// Supports reports whether the display advertises a feature code.
func (c *Capabilities) Supports(code byte) bool {
	for _, f := range c.Features {
		if f.Code == code {
			return true
		}
	}
	return false
}

// Parse decodes a capabilities string. Displays are sloppy about the
// format, so unknown segments are preserved rather than rejected; only
// structural damage (unbalanced parentheses) is an error.
func Parse(s string) (*Capabilities, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' {
		return nil, fmt.Errorf("caps: string does not start with '(': %q", truncate(s))
	}
	inner, rest, err := balanced(s)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("caps: trailing data after root group: %q", truncate(rest))
	}

	c := &Capabilities{Unrecognized: map[string]string{}}
	for inner != "" {
		name, value, tail, err := segment(inner)
		if err != nil {
			return nil, err
		}
		inner = tail

		switch name {
		case "prot":
			c.Protocol = value
		case "type":
			c.Type = value
		case "model":
			c.Model = value
		case "mccs_ver":
			c.MCCSVersion = value
		case "cmds":
			c.Commands, err = parseHexList(value)
			if err != nil {
				return nil, fmt.Errorf("caps: cmds segment: %w", err)
			}
		case "vcp":
			c.Features, err = parseVCP(value)
			if err != nil {
				return nil, fmt.Errorf("caps: vcp segment: %w", err)
			}
		default:
			c.Unrecognized[name] = value
		}
	}
	return c, nil
}

// balanced strips one balanced parenthesized group from the front of s,
// returning its contents and the remainder.
func balanced(s string) (inner, rest string, err error) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], nil
			}
			if depth < 0 {
				return "", "", fmt.Errorf("caps: unbalanced ')' at offset %d", i)
			}
		}
	}
	return "", "", fmt.Errorf("caps: unterminated group: %q", truncate(s))
}

// segment consumes one name(value) segment from the front of s.
func segment(s string) (name, value, tail string, err error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		// bare trailing identifier with no value group
		return s, "", "", nil
	}
	name = strings.TrimSpace(s[:open])
	value, tail, err = balanced(s[open:])
	return name, value, tail, err
}

// parseHexList decodes a flat list of two-digit hex codes.
func parseHexList(s string) ([]byte, error) {
	var out []byte
	for _, tok := range strings.Fields(s) {
		n, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad hex code %q", tok)
		}
		out = append(out, byte(n))
	}
	return out, nil
}

// parseVCP decodes the vcp segment: hex feature codes, each optionally
// followed by a parenthesized list of supported values.
func parseVCP(s string) ([]Feature, error) {
	var out []Feature
	s = strings.TrimSpace(s)
	for s != "" {
		sp := strings.IndexAny(s, " (")
		tok := s
		if sp >= 0 {
			tok = s[:sp]
			s = s[sp:]
		} else {
			s = ""
		}

		n, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad feature code %q", tok)
		}
		f := Feature{Code: byte(n)}

		s = strings.TrimLeft(s, " ")
		if strings.HasPrefix(s, "(") {
			inner, rest, err := balanced(s)
			if err != nil {
				return nil, err
			}
			f.Values, err = parseHexList(inner)
			if err != nil {
				return nil, fmt.Errorf("feature %02x values: %w", f.Code, err)
			}
			s = strings.TrimLeft(rest, " ")
		}
		out = append(out, f)
	}
	return out, nil
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
