package entities

import (
	"fmt"
	"strings"
)

// Capability is one of the selectable conversational tools.
type Capability int

const (
	CapabilityChat Capability = iota
	CapabilityDocumentQA
	CapabilityTableQA
)

// Capabilities lists every capability in declaration order.
var Capabilities = [...]Capability{CapabilityChat, CapabilityDocumentQA, CapabilityTableQA}

// String returns the wire name of the capability.
func (c Capability) String() string {
	switch c {
	case CapabilityChat:
		return "chat"
	case CapabilityDocumentQA:
		return "pdf"
	case CapabilityTableQA:
		return "csv"
	default:
		return fmt.Sprintf("Capability(%d)", int(c))
	}
}

// Badge is the marker prefixed to routed answers so the user can see
// which tool handled the turn.
func (c Capability) Badge() string {
	return "**Selected tool:** `" + strings.ToUpper(c.String()) + "`"
}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	return c >= CapabilityChat && c <= CapabilityTableQA
}

// ParseCapability accepts the wire name or a few common aliases.
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chat":
		return CapabilityChat, nil
	case "pdf", "document", "documentqa", "doc":
		return CapabilityDocumentQA, nil
	case "csv", "table", "tableqa", "dataset":
		return CapabilityTableQA, nil
	default:
		return 0, fmt.Errorf("unknown capability %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Capability) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid capability %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Capability) UnmarshalText(text []byte) error {
	parsed, err := ParseCapability(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// KeywordSet is an ordered list of lowercase substrings associated with a
// capability.
type KeywordSet []string

// DocumentKeywords returns the keyword set that points a query at DocumentQA.
func DocumentKeywords() KeywordSet {
	return KeywordSet{
		"pdf", "document", "paper", "file", "section", "paragraph", "according to the document",
		"say about",
	}
}

// TableKeywords returns the keyword set that points a query at TableQA.
func TableKeywords() KeywordSet {
	return KeywordSet{
		"csv", "table", "dataset", "data", "chart", "plot", "bar", "line", "scatter", "trend",
	}
}
