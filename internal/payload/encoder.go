// Package payload flattens a CanonicalSubmission into the ordered
// key/value parts sent to the remote listing service.
package payload

import (
	"strconv"

	"github.com/iliyamo/staywizard/internal/model"
)

// Part is one transport entry.  File is set for binary parts; Value
// holds the stringified scalar otherwise.
type Part struct {
	Key   string
	Value string
	File  *model.MediaFile
}

// Payload is the ordered list of parts.  Encoding the same submission
// twice yields identical parts in identical order.
type Payload struct {
	Parts []Part
}

// Keys returns the key of every part in order.
func (p Payload) Keys() []string {
	out := make([]string, len(p.Parts))
	for i, part := range p.Parts {
		out[i] = part.Key
	}
	return out
}

// Get returns every value stored under key, in order.
func (p Payload) Get(key string) []string {
	var out []string
	for _, part := range p.Parts {
		if part.Key == key && part.File == nil {
			out = append(out, part.Value)
		}
	}
	return out
}

type encoder struct {
	parts []Part
}

func (e *encoder) str(key, v string) {
	if v == "" {
		return
	}
	e.parts = append(e.parts, Part{Key: key, Value: v})
}

func (e *encoder) integer(key string, v *int) {
	if v == nil {
		return
	}
	e.parts = append(e.parts, Part{Key: key, Value: strconv.Itoa(*v)})
}

func (e *encoder) float(key string, v *float64) {
	if v == nil {
		return
	}
	e.parts = append(e.parts, Part{Key: key, Value: strconv.FormatFloat(*v, 'f', -1, 64)})
}

func (e *encoder) boolean(key string, v bool) {
	e.parts = append(e.parts, Part{Key: key, Value: strconv.FormatBool(v)})
}

// list emits one entry per element under the same key; an empty list
// emits nothing.
func (e *encoder) list(key string, vs []string) {
	for _, v := range vs {
		e.str(key, v)
	}
}

func (e *encoder) file(key string, f *model.MediaFile) {
	if f == nil || len(f.Data) == 0 {
		return
	}
	e.parts = append(e.parts, Part{Key: key, File: f})
}

// Encode flattens sub.  Sections are written in a fixed order: contact,
// location, media, details, remaining scalars, promotion.
func Encode(sub model.CanonicalSubmission) Payload {
	e := &encoder{}

	e.str("contact.name", sub.Contact.Name)
	e.str("contact.email", sub.Contact.Email)
	e.str("contact.phone", sub.Contact.Phone)
	e.list("contact.languages", sub.Contact.Languages)

	e.str("location.street", sub.Location.Street)
	e.str("location.city", sub.Location.City)
	e.str("location.state", sub.Location.State)
	e.str("location.zip", sub.Location.Zip)
	e.str("location.country", sub.Location.Country)
	e.float("location.latitude", sub.Location.Latitude)
	e.float("location.longitude", sub.Location.Longitude)

	e.file("media.coverPhoto", sub.Media.CoverPhoto)
	e.list("media.images", sub.Media.Images)

	e.str("details.title", sub.Details.Title)
	e.str("details.category", sub.Details.Category)
	e.str("details.propertyType", sub.Details.PropertyType)
	e.str("details.offerType", sub.Details.OfferType)
	e.str("details.condition", sub.Details.Condition)
	e.integer("details.rooms", sub.Details.Rooms)
	e.float("details.area", sub.Details.Area)
	e.integer("details.floor", sub.Details.Floor)
	e.str("details.description", sub.Details.Description)
	e.str("details.stayedFrom", sub.Details.StayedFrom)
	e.str("details.stayedTo", sub.Details.StayedTo)

	e.float("price", sub.Cost.Price)
	e.str("currency", sub.Cost.Currency)
	e.float("deposit", sub.Cost.Deposit)
	e.boolean("utilitiesIncluded", sub.Cost.UtilitiesIncluded)
	e.list("amenities", sub.Features.Amenities)
	e.list("infrastructure", sub.Features.Infrastructure)
	e.list("accessibility", sub.Features.Accessibility)
	e.integer("valueForMoney", sub.Review.ValueForMoney)
	e.integer("overallExperience", sub.Review.OverallExperience)
	e.float("overallRating", sub.OverallRating)
	e.str("reviewText", sub.Review.Text)
	e.boolean("submitAnonymously", sub.SubmitAnonymously)

	if sub.Kind != model.KindReview {
		e.boolean("promotion.highlight", sub.Promotion.Highlight)
		e.boolean("promotion.topOfList", sub.Promotion.TopOfList)
		e.boolean("promotion.urgentBadge", sub.Promotion.UrgentBadge)
	}
	return Payload{Parts: e.parts}
}
