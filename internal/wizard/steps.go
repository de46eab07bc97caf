package wizard

import (
	"strings"

	"github.com/iliyamo/staywizard/internal/model"
)

// Predicate returns the requirements of a position that the draft does
// not meet yet.  An empty result means the position is complete.
type Predicate func(d model.Draft) []string

// Substep is one screen of a step.
type Substep struct {
	Name     string
	Complete Predicate
}

// Step is an entry of the ordered step list.  Simple steps have exactly
// one substep; composite steps have several.
type Step struct {
	Name     string
	Substeps []Substep
}

// Composite reports whether the step has more than one substep.
func (s Step) Composite() bool { return len(s.Substeps) > 1 }

func single(name string, p Predicate) Step {
	return Step{Name: name, Substeps: []Substep{{Name: name, Complete: p}}}
}

func all(ps ...Predicate) Predicate {
	return func(d model.Draft) []string {
		var unmet []string
		for _, p := range ps {
			unmet = append(unmet, p(d)...)
		}
		return unmet
	}
}

func none(model.Draft) []string { return nil }

func text(key string, get func(d model.Draft) string) Predicate {
	return func(d model.Draft) []string {
		if strings.TrimSpace(get(d)) == "" {
			return []string{key}
		}
		return nil
	}
}

func rating(key string, get func(d model.Draft) *int) Predicate {
	return func(d model.Draft) []string {
		if v := get(d); v == nil || *v < 1 || *v > 5 {
			return []string{key}
		}
		return nil
	}
}

var (
	needStreet      = text("location.street", func(d model.Draft) string { return d.Location.Street })
	needState       = text("location.state", func(d model.Draft) string { return d.Location.State })
	needCategory    = text("details.category", func(d model.Draft) string { return d.Details.Category })
	needType        = text("details.propertyType", func(d model.Draft) string { return d.Details.PropertyType })
	needDescription = text("details.description", func(d model.Draft) string { return d.Details.Description })
	needName        = text("contact.name", func(d model.Draft) string { return d.Contact.Name })
	needReviewText  = text("review.text", func(d model.Draft) string { return d.Review.Text })
	needValue       = rating("review.valueForMoney", func(d model.Draft) *int { return d.Review.ValueForMoney })
	needExperience  = rating("review.overallExperience", func(d model.Draft) *int { return d.Review.OverallExperience })
)

func needPrice(d model.Draft) []string {
	if d.Cost.Price == nil || *d.Cost.Price <= 0 {
		return []string{"cost.price"}
	}
	return nil
}

func needReachable(d model.Draft) []string {
	if strings.TrimSpace(d.Contact.Email) == "" && strings.TrimSpace(d.Contact.Phone) == "" {
		return []string{"contact.email|contact.phone"}
	}
	return nil
}

func needCover(d model.Draft) []string {
	c := d.Media.CoverPhoto
	if c == nil || len(c.Data) == 0 || !strings.HasPrefix(c.ContentType, "image/") {
		return []string{"media.coverPhoto"}
	}
	return nil
}

func needTerms(d model.Draft) []string {
	if !d.Terms.Agreed {
		return []string{"terms.agreed"}
	}
	return nil
}

// stayDates checks that a review's stay period is not inverted.  Dates
// are YYYY-MM-DD so lexical order is chronological.
func stayDates(d model.Draft) []string {
	from, to := d.Details.StayedFrom, d.Details.StayedTo
	if from != "" && to != "" && to < from {
		return []string{"details.stayedTo"}
	}
	return nil
}

var listingSteps = []Step{
	single("location", all(needStreet, needState)),
	{Name: "property", Substeps: []Substep{
		{Name: "basics", Complete: all(needCategory, needType)},
		{Name: "description", Complete: needDescription},
		{Name: "features", Complete: none},
	}},
	single("cost", needPrice),
	single("contact", all(needName, needReachable)),
	single("media", needCover),
	single("promotion", none),
	single("confirm", needTerms),
}

var reviewSteps = []Step{
	single("location", all(needStreet, needState)),
	{Name: "stay", Substeps: []Substep{
		{Name: "basics", Complete: all(needType, needDescription)},
		{Name: "dates", Complete: stayDates},
		{Name: "features", Complete: none},
	}},
	{Name: "ratings", Substeps: []Substep{
		{Name: "scores", Complete: all(needValue, needExperience)},
		{Name: "text", Complete: needReviewText},
	}},
	single("media", needCover),
	single("confirm", needTerms),
}

// StepsFor returns the step list of a kind.  The final step is always
// the submit confirmation.
func StepsFor(kind model.Kind) []Step {
	src := listingSteps
	if kind == model.KindReview {
		src = reviewSteps
	}
	out := make([]Step, len(src))
	copy(out, src)
	return out
}
