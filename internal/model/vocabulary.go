package model

// Vocabulary is an ordered set of allowed values for an enumerated field.
// The order is the catalog order used when encoding sets.
type Vocabulary struct {
	Name   string
	values []string
	index  map[string]struct{}
}

func newVocabulary(name string, values ...string) Vocabulary {
	idx := make(map[string]struct{}, len(values))
	for _, v := range values {
		idx[v] = struct{}{}
	}
	return Vocabulary{Name: name, values: values, index: idx}
}

// Contains reports whether v is an allowed value.
func (v Vocabulary) Contains(s string) bool {
	_, ok := v.index[s]
	return ok
}

// Values returns the allowed values in catalog order.
func (v Vocabulary) Values() []string {
	out := make([]string, len(v.values))
	copy(out, v.values)
	return out
}

var (
	Categories = newVocabulary("category", "Sale", "Rent", "Swap")

	PropertyTypes = newVocabulary("propertyType",
		"Apartment", "House", "Room", "Studio", "Villa", "Cottage")

	OfferTypes = newVocabulary("offerType", "Private person", "Real estate agent")

	Conditions = newVocabulary("condition", "Good Condition", "New Building", "Renovated")

	Amenities = newVocabulary("amenities",
		"Air conditioning", "Balcony", "Dishwasher", "Elevator", "Furnished",
		"Garden", "Heating", "Internet", "Parking", "Pets allowed",
		"Refrigerator", "Swimming pool", "TV set", "Terrace", "Washing machine")

	Infrastructure = newVocabulary("infrastructure",
		"Bus stop", "Cafe", "Gym", "Hospital", "Kindergarten", "Park",
		"Pharmacy", "Restaurant", "School", "Shopping mall", "Supermarket", "Train station")

	Accessibility = newVocabulary("accessibility",
		"Step-free access", "Wide doorways", "Accessible bathroom",
		"Grab rails", "Elevator access", "Accessible parking")

	Languages = newVocabulary("languages",
		"English", "German", "French", "Spanish", "Italian", "Polish", "Ukrainian", "Czech")
)

// Vocabularies lists every vocabulary in a stable order.
func Vocabularies() []Vocabulary {
	return []Vocabulary{Categories, PropertyTypes, OfferTypes, Conditions, Amenities, Infrastructure, Accessibility, Languages}
}
