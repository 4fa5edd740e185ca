// File: internal/flows/collaborators.go
package flows

import (
	"context"
	"strings"
)

// Case is the slice of a CRM case the pipeline needs.
type Case struct {
	ID       string
	RefNr    string
	TjanstNr string
	KundNr   string
}

// Agreement is the payload for creating an agreement record. In a real
// deployment these values come from rules and tariff tables; here they are
// assembled by the create-agreement step.
type Agreement struct {
	Company      string
	Goal         string
	KundNr       string
	StartDate    string
	ConsumerType string
	Product      string
	DebitMethod  string
	DebitFormula string
	PriceParam1  string
	PriceParam2  string
	CustomerRef  string
}

// CaseSystem is the narrow surface of the CRM application (case record,
// checklist, status). Request in, confirmation out; idempotent on reset.
type CaseSystem interface {
	FetchCase(ctx context.Context) (Case, error)
	SetStatus(ctx context.Context, status, reason string) error
	SetCheckItem(ctx context.Context, index int, done bool) error
	ResetState(ctx context.Context) error
}

// ServiceSystem is the narrow surface of the billing application (service
// record overview, agreement records).
type ServiceSystem interface {
	UpdateOverview(ctx context.Context, tjanstenr, anlaggningsID, saking string) error
	CreateAgreement(ctx context.Context, a Agreement) (string, error)
	ResetState(ctx context.Context) error
}

// DocumentSource yields the label → value payload of the grid-portal
// document.
type DocumentSource interface {
	Payload(ctx context.Context) (map[string]string, error)
	ResetState(ctx context.Context) error
}

// clipboardTokenPrefix marks values that live on the system clipboard
// rather than in process memory. The core never reads window content
// programmatically, so a value copied out of a window travels as a token
// and is realized by a paste at its destination.
const clipboardTokenPrefix = "clipboard:"

// ClipboardToken builds a token for a named clipboard-held value.
func ClipboardToken(name string) string { return clipboardTokenPrefix + name }

// IsClipboardToken reports whether v is a clipboard token.
func IsClipboardToken(v string) bool { return strings.HasPrefix(v, clipboardTokenPrefix) }
