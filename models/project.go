package models

// NotAvailable is the default for description and country when the listing
// does not render them.
const NotAvailable = "N/A"

// ProjectRecord is one project item of the marketplace listing.
//
// Nullable fields are pointers so that an absent sub-element serialises as
// JSON null rather than being omitted.
type ProjectRecord struct {
	Title         *string `json:"title"`
	URL           *string `json:"url"`
	Bids          *string `json:"bids"`
	PublishedDate *string `json:"published_date"`
	Budget        *string `json:"budget"`
	Contacted     bool    `json:"contacted"`
	Description   string  `json:"description"`
	Country       string  `json:"country"`
}

// NewProjectRecord returns a record with every field at its default.
func NewProjectRecord() ProjectRecord {
	return ProjectRecord{
		Description: NotAvailable,
		Country:     NotAvailable,
	}
}

// StringOr dereferences p, returning fallback when p is nil.
func StringOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
