package model

// FieldKind describes how a draft field is written.
type FieldKind int

const (
	// FieldScalar is replaced on every write.
	FieldScalar FieldKind = iota
	// FieldList is an ordered list, replaced on every write.
	FieldList
	// FieldSet is a boolean set; writes shallow-merge onto the stored set.
	FieldSet
	// FieldFile is an inline binary file.
	FieldFile
)

// Field describes one independently persisted draft field.  Key is the
// stable "section.field" path used for storage and for error reporting.
type Field struct {
	Key  string
	Kind FieldKind
	ref  func(d *Draft) any
}

// Ref returns a pointer to the field inside d.
func (f Field) Ref(d *Draft) any { return f.ref(d) }

var fields = []Field{
	{"location.street", FieldScalar, func(d *Draft) any { return &d.Location.Street }},
	{"location.city", FieldScalar, func(d *Draft) any { return &d.Location.City }},
	{"location.state", FieldScalar, func(d *Draft) any { return &d.Location.State }},
	{"location.zip", FieldScalar, func(d *Draft) any { return &d.Location.Zip }},
	{"location.country", FieldScalar, func(d *Draft) any { return &d.Location.Country }},
	{"location.latitude", FieldScalar, func(d *Draft) any { return &d.Location.Latitude }},
	{"location.longitude", FieldScalar, func(d *Draft) any { return &d.Location.Longitude }},

	{"details.title", FieldScalar, func(d *Draft) any { return &d.Details.Title }},
	{"details.category", FieldScalar, func(d *Draft) any { return &d.Details.Category }},
	{"details.propertyType", FieldScalar, func(d *Draft) any { return &d.Details.PropertyType }},
	{"details.offerType", FieldScalar, func(d *Draft) any { return &d.Details.OfferType }},
	{"details.condition", FieldScalar, func(d *Draft) any { return &d.Details.Condition }},
	{"details.rooms", FieldScalar, func(d *Draft) any { return &d.Details.Rooms }},
	{"details.area", FieldScalar, func(d *Draft) any { return &d.Details.Area }},
	{"details.floor", FieldScalar, func(d *Draft) any { return &d.Details.Floor }},
	{"details.description", FieldScalar, func(d *Draft) any { return &d.Details.Description }},
	{"details.stayedFrom", FieldScalar, func(d *Draft) any { return &d.Details.StayedFrom }},
	{"details.stayedTo", FieldScalar, func(d *Draft) any { return &d.Details.StayedTo }},

	{"cost.price", FieldScalar, func(d *Draft) any { return &d.Cost.Price }},
	{"cost.currency", FieldScalar, func(d *Draft) any { return &d.Cost.Currency }},
	{"cost.deposit", FieldScalar, func(d *Draft) any { return &d.Cost.Deposit }},
	{"cost.utilitiesIncluded", FieldScalar, func(d *Draft) any { return &d.Cost.UtilitiesIncluded }},

	{"features.amenities", FieldSet, func(d *Draft) any { return &d.Features.Amenities }},
	{"features.infrastructure", FieldList, func(d *Draft) any { return &d.Features.Infrastructure }},
	{"features.accessibility", FieldSet, func(d *Draft) any { return &d.Features.Accessibility }},

	{"review.valueForMoney", FieldScalar, func(d *Draft) any { return &d.Review.ValueForMoney }},
	{"review.overallExperience", FieldScalar, func(d *Draft) any { return &d.Review.OverallExperience }},
	{"review.text", FieldScalar, func(d *Draft) any { return &d.Review.Text }},

	{"contact.name", FieldScalar, func(d *Draft) any { return &d.Contact.Name }},
	{"contact.email", FieldScalar, func(d *Draft) any { return &d.Contact.Email }},
	{"contact.phone", FieldScalar, func(d *Draft) any { return &d.Contact.Phone }},
	{"contact.languages", FieldSet, func(d *Draft) any { return &d.Contact.Languages }},

	{"media.coverPhoto", FieldFile, func(d *Draft) any { return &d.Media.CoverPhoto }},
	{"media.images", FieldList, func(d *Draft) any { return &d.Media.Images }},

	{"promotion.highlight", FieldScalar, func(d *Draft) any { return &d.Promotion.Highlight }},
	{"promotion.topOfList", FieldScalar, func(d *Draft) any { return &d.Promotion.TopOfList }},
	{"promotion.urgentBadge", FieldScalar, func(d *Draft) any { return &d.Promotion.UrgentBadge }},

	{"terms.agreed", FieldScalar, func(d *Draft) any { return &d.Terms.Agreed }},
}

var fieldIndex = func() map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[f.Key] = f
	}
	return m
}()

// Fields returns every draft field in schema order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// LookupField returns the field registered under key.
func LookupField(key string) (Field, bool) {
	f, ok := fieldIndex[key]
	return f, ok
}
