// Package compose turns a Draft into a validated CanonicalSubmission.
// Compose is a pure function of its inputs.
package compose

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/staywizard/internal/model"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// Violation is one failed check.  Value is the offending value for
// vocabulary checks and empty for presence checks.
type Violation struct {
	Field   string   `json:"field"`
	Reason  string   `json:"reason"`
	Value   string   `json:"value,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
}

// ValidationError aggregates every violation found by Compose, in check
// order.  Field and Error report the first one.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	v := e.First()
	if v.Value != "" {
		return fmt.Sprintf("%s: %s (%q)", v.Field, v.Reason, v.Value)
	}
	return v.Field + ": " + v.Reason
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// First returns the first violation.
func (e *ValidationError) First() Violation {
	if len(e.Violations) == 0 {
		return Violation{}
	}
	return e.Violations[0]
}

// Field returns the field of the first violation.
func (e *ValidationError) Field() string { return e.First().Field }

type check struct {
	field string
	run   func(kind model.Kind, d model.Draft) []Violation
}

// checks run in this order; the order decides which violation is first.
var checks = []check{
	{"details.category", scalar(model.Categories, func(d model.Draft) string { return d.Details.Category })},
	{"details.propertyType", scalar(model.PropertyTypes, func(d model.Draft) string { return d.Details.PropertyType })},
	{"details.offerType", scalar(model.OfferTypes, func(d model.Draft) string { return d.Details.OfferType })},
	{"details.condition", scalar(model.Conditions, func(d model.Draft) string { return d.Details.Condition })},
	{"features.amenities", subset(model.Amenities, func(d model.Draft) []string { return selected(d.Features.Amenities) })},
	{"features.infrastructure", subset(model.Infrastructure, func(d model.Draft) []string { return d.Features.Infrastructure })},
	{"features.accessibility", subset(model.Accessibility, func(d model.Draft) []string { return selected(d.Features.Accessibility) })},
	{"contact.languages", subset(model.Languages, func(d model.Draft) []string { return selected(d.Contact.Languages) })},
	{"details.description", present(func(d model.Draft) string { return d.Details.Description })},
	{"media.coverPhoto", coverPhoto},
	{"location.street", present(func(d model.Draft) string { return d.Location.Street })},
	{"location.state", present(func(d model.Draft) string { return d.Location.State })},
	{"review.valueForMoney", ratingCheck(func(d model.Draft) *int { return d.Review.ValueForMoney })},
	{"review.overallExperience", ratingCheck(func(d model.Draft) *int { return d.Review.OverallExperience })},
	{"terms.agreed", termsAgreed},
}

func scalar(v model.Vocabulary, get func(model.Draft) string) func(model.Kind, model.Draft) []Violation {
	return func(_ model.Kind, d model.Draft) []Violation {
		val := get(d)
		if val == "" || v.Contains(val) {
			return nil
		}
		return []Violation{{Reason: "not an allowed value", Value: val, Allowed: v.Values()}}
	}
}

func subset(v model.Vocabulary, get func(model.Draft) []string) func(model.Kind, model.Draft) []Violation {
	return func(_ model.Kind, d model.Draft) []Violation {
		var out []Violation
		for _, val := range get(d) {
			if !v.Contains(val) {
				out = append(out, Violation{Reason: "not an allowed value", Value: val, Allowed: v.Values()})
			}
		}
		return out
	}
}

func present(get func(model.Draft) string) func(model.Kind, model.Draft) []Violation {
	return func(_ model.Kind, d model.Draft) []Violation {
		if strings.TrimSpace(get(d)) == "" {
			return []Violation{{Reason: "is required"}}
		}
		return nil
	}
}

func coverPhoto(_ model.Kind, d model.Draft) []Violation {
	c := d.Media.CoverPhoto
	switch {
	case c == nil || len(c.Data) == 0:
		return []Violation{{Reason: "is required"}}
	case !strings.HasPrefix(c.ContentType, "image/"):
		return []Violation{{Reason: "must be an image", Value: c.ContentType}}
	}
	return nil
}

// termsAgreed is the final-step agreement.  Parked snapshots are composed
// without the wizard, so it is checked here too.
func termsAgreed(_ model.Kind, d model.Draft) []Violation {
	if !d.Terms.Agreed {
		return []Violation{{Reason: "must be agreed"}}
	}
	return nil
}

// ratingCheck requires a rating for reviews and range-checks it whenever
// it is set.
func ratingCheck(get func(model.Draft) *int) func(model.Kind, model.Draft) []Violation {
	return func(kind model.Kind, d model.Draft) []Violation {
		r := get(d)
		switch {
		case r == nil && kind == model.KindReview:
			return []Violation{{Reason: "is required"}}
		case r != nil && (*r < 1 || *r > 5):
			return []Violation{{Reason: "must be between 1 and 5", Value: fmt.Sprint(*r)}}
		}
		return nil
	}
}

// selected returns the true members of a boolean set, sorted so the
// violation order does not depend on map iteration.
func selected(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k, on := range set {
		if on {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func validate(kind model.Kind, d model.Draft, only string) []Violation {
	var out []Violation
	for _, c := range checks {
		if only != "" && c.field != only {
			continue
		}
		for _, v := range c.run(kind, d) {
			v.Field = c.field
			out = append(out, v)
		}
	}
	return out
}

// Compose validates d and projects it into a CanonicalSubmission.  On
// failure it returns a *ValidationError holding every violation in check
// order; the draft is not modified.
func Compose(kind model.Kind, d model.Draft) (model.CanonicalSubmission, error) {
	if !kind.Valid() {
		return model.CanonicalSubmission{}, &ValidationError{Violations: []Violation{{
			Field: "kind", Reason: "not an allowed value", Value: string(kind),
			Allowed: []string{string(model.KindListing), string(model.KindReview)},
		}}}
	}
	if vs := validate(kind, d, ""); len(vs) > 0 {
		return model.CanonicalSubmission{}, &ValidationError{Violations: vs}
	}

	d = d.Clone()
	sub := model.CanonicalSubmission{
		Kind: kind,
		Contact: model.CanonicalContact{
			Name:      strings.TrimSpace(d.Contact.Name),
			Email:     strings.TrimSpace(d.Contact.Email),
			Phone:     strings.TrimSpace(d.Contact.Phone),
			Languages: inCatalogOrder(model.Languages, d.Contact.Languages),
		},
		Location: d.Location,
		Media:    d.Media,
		Details:  d.Details,
		Cost:     d.Cost,
		Features: model.CanonicalFeatures{
			Amenities:      inCatalogOrder(model.Amenities, d.Features.Amenities),
			Infrastructure: dedupe(d.Features.Infrastructure),
			Accessibility:  inCatalogOrder(model.Accessibility, d.Features.Accessibility),
		},
		Review:        d.Review,
		OverallRating: OverallRating(d.Review),
		Promotion:     d.Promotion,
	}
	if kind == model.KindReview {
		// promotion options only exist for listings
		sub.Promotion = model.Promotion{}
	}
	return sub, nil
}

// CheckField runs the checks registered for a single field.  It backs
// the immediate, field-by-field feedback while the user edits.
func CheckField(kind model.Kind, key string, d model.Draft) []Violation {
	return validate(kind, d, key)
}

// OverallRating is the mean of the value-for-money and overall
// experience ratings, or nil when either is missing.
func OverallRating(r model.Review) *float64 {
	if r.ValueForMoney == nil || r.OverallExperience == nil {
		return nil
	}
	avg := float64(*r.ValueForMoney+*r.OverallExperience) / 2
	return &avg
}

func inCatalogOrder(v model.Vocabulary, set map[string]bool) []string {
	var out []string
	for _, val := range v.Values() {
		if set[val] {
			out = append(out, val)
		}
	}
	return out
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
