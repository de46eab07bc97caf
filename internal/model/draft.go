package model

import "encoding/json"

// Kind selects which submission a flow produces.  Both kinds share the
// same Draft schema; they differ in wizard steps and the remote endpoint.
type Kind string

const (
	KindListing Kind = "listing"
	KindReview  Kind = "review"
)

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool { return k == KindListing || k == KindReview }

// Location holds the address section of a draft.
type Location struct {
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zip       string   `json:"zip"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Details holds the stay/property section.  StayedFrom and StayedTo are
// only used by reviews and are formatted as YYYY-MM-DD.
type Details struct {
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	PropertyType string   `json:"propertyType"`
	OfferType    string   `json:"offerType"`
	Condition    string   `json:"condition"`
	Rooms        *int     `json:"rooms,omitempty"`
	Area         *float64 `json:"area,omitempty"`
	Floor        *int     `json:"floor,omitempty"`
	Description  string   `json:"description"`
	StayedFrom   string   `json:"stayedFrom"`
	StayedTo     string   `json:"stayedTo"`
}

// Cost holds the price section.
type Cost struct {
	Price             *float64 `json:"price,omitempty"`
	Currency          string   `json:"currency"`
	Deposit           *float64 `json:"deposit,omitempty"`
	UtilitiesIncluded bool     `json:"utilitiesIncluded"`
}

// Features holds the accessibility/amenities section.  Amenities and
// Accessibility are boolean sets: a write merges into the stored set
// instead of replacing it.
type Features struct {
	Amenities      map[string]bool `json:"amenities,omitempty"`
	Infrastructure []string        `json:"infrastructure,omitempty"`
	Accessibility  map[string]bool `json:"accessibility,omitempty"`
}

// Review holds the ratings & review section.  Ratings are 1..5; the
// overall rating is never stored, it is derived at compose time.
type Review struct {
	ValueForMoney     *int   `json:"valueForMoney,omitempty"`
	OverallExperience *int   `json:"overallExperience,omitempty"`
	Text              string `json:"text"`
}

// Contact holds the contact info section.
type Contact struct {
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Languages map[string]bool `json:"languages,omitempty"`
}

// MediaFile is an uploaded file kept inline in the draft so that it
// survives an authentication redirect together with the rest of the form.
type MediaFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Media holds the media references section.
type Media struct {
	CoverPhoto *MediaFile `json:"coverPhoto,omitempty"`
	Images     []string   `json:"images,omitempty"`
}

// Promotion holds the paid promotion options of a listing.
type Promotion struct {
	Highlight   bool `json:"highlight"`
	TopOfList   bool `json:"topOfList"`
	UrgentBadge bool `json:"urgentBadge"`
}

// Terms holds the final-step agreement.
type Terms struct {
	Agreed bool `json:"agreed"`
}

// Draft is the canonical in-progress submission.  Its schema is the
// union of every wizard section and does not depend on the current step.
type Draft struct {
	Location  Location  `json:"location"`
	Details   Details   `json:"details"`
	Cost      Cost      `json:"cost"`
	Features  Features  `json:"features"`
	Review    Review    `json:"review"`
	Contact   Contact   `json:"contact"`
	Media     Media     `json:"media"`
	Promotion Promotion `json:"promotion"`
	Terms     Terms     `json:"terms"`
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	var out Draft
	b, err := json.Marshal(d)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(b, &out)
	return out
}
