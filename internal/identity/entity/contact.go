package entity

import "strings"

type ContactKind int8

const (
	ContactKindUnknown ContactKind = iota
	ContactKindEmail
	ContactKindPhone
)

func (k ContactKind) String() string {
	switch k {
	case ContactKindEmail:
		return "email"
	case ContactKindPhone:
		return "phone"
	default:
		return "unknown"
	}
}

// NormalizeContact trims the contact and lowercases email addresses so that
// "A@B.com" and "a@b.com" resolve to one identity.
func NormalizeContact(contact string) string {
	contact = strings.TrimSpace(contact)
	if strings.Contains(contact, "@") {
		return strings.ToLower(contact)
	}
	return contact
}

// ContactKindOf classifies an already validated contact.
func ContactKindOf(contact string) ContactKind {
	switch {
	case strings.HasPrefix(contact, "+"):
		return ContactKindPhone
	case strings.Contains(contact, "@"):
		return ContactKindEmail
	default:
		return ContactKindUnknown
	}
}
