package wizard

import (
	"errors"
	"testing"

	"github.com/iliyamo/staywizard/internal/model"
)

func completeListing() model.Draft {
	price := 900.0
	var d model.Draft
	d.Location.Street = "Main 1"
	d.Location.State = "Bavaria"
	d.Details.Category = "Rent"
	d.Details.PropertyType = "Apartment"
	d.Details.Description = "Bright flat"
	d.Cost.Price = &price
	d.Contact.Name = "Ann"
	d.Contact.Email = "ann@example.com"
	d.Media.CoverPhoto = &model.MediaFile{Name: "c.png", ContentType: "image/png", Data: []byte{1}}
	d.Terms.Agreed = true
	return d
}

func TestAdvance_BlockedByPredicate(t *testing.T) {
	c := NewForKind(model.KindListing)
	var d model.Draft
	d.Location.Street = "Main 1"

	pos, err := c.Advance(d)
	var inc *IncompleteError
	if !errors.As(err, &inc) {
		t.Fatalf("want IncompleteError, got %v", err)
	}
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("IncompleteError must wrap ErrIncomplete")
	}
	if pos != (Position{}) || c.Position() != (Position{}) {
		t.Fatalf("position moved on failed advance: %+v", c.Position())
	}
	if len(inc.Unmet) != 1 || inc.Unmet[0] != "location.state" {
		t.Fatalf("unmet = %v", inc.Unmet)
	}
}

func TestAdvance_WalksSubstepsToConfirm(t *testing.T) {
	c := NewForKind(model.KindListing)
	d := completeListing()

	want := []Position{{1, 0}, {1, 1}, {1, 2}, {2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 0}}
	for i, w := range want {
		got, err := c.Advance(d)
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		if got != w {
			t.Fatalf("advance %d: got %+v want %+v", i, got, w)
		}
	}
	if c.State().Phase != Confirming {
		t.Fatalf("phase = %v, want confirming", c.State().Phase)
	}
	if !c.ReadyToSubmit(d) {
		t.Fatal("should be ready to submit")
	}
	if _, err := c.Advance(d); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("advance past confirm: %v", err)
	}

	d.Terms.Agreed = false
	if c.ReadyToSubmit(d) {
		t.Fatal("terms not agreed but ready")
	}
	var nr *NotReadyError
	if err := c.CheckReady(d); !errors.As(err, &nr) || nr.Position != (Position{Step: 6}) || nr.Unmet[0] != "terms.agreed" {
		t.Fatalf("check ready = %v", err)
	}

	// data removed from an earlier step after reaching the end
	d.Terms.Agreed = true
	d.Cost.Price = nil
	if err := c.CheckReady(d); !errors.As(err, &nr) || nr.Position != (Position{Step: 2}) || nr.Unmet[0] != "cost.price" {
		t.Fatalf("check ready with cleared price = %v", err)
	}
}

func TestCheckReady_NotOnFinalStep(t *testing.T) {
	c := NewForKind(model.KindListing)
	err := c.CheckReady(completeListing())
	var nr *NotReadyError
	if !errors.As(err, &nr) || !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v", err)
	}
	if nr.Position != (Position{}) || len(nr.Unmet) != 0 {
		t.Fatalf("not ready = %+v", nr)
	}
}

func TestRetreat(t *testing.T) {
	c := NewForKind(model.KindListing)
	if _, err := c.Retreat(); !errors.Is(err, ErrAtFirst) {
		t.Fatalf("retreat at first: %v", err)
	}
	d := completeListing()
	for i := 0; i < 4; i++ { // -> step 2
		if _, err := c.Advance(d); err != nil {
			t.Fatal(err)
		}
	}
	pos, err := c.Retreat()
	if err != nil {
		t.Fatal(err)
	}
	if pos != (Position{Step: 1, Substep: 2}) {
		t.Fatalf("retreat into composite step landed on %+v", pos)
	}
	// retreat never consults predicates
	if _, err := c.Retreat(); err != nil {
		t.Fatalf("second retreat: %v", err)
	}
}

func TestJumpTo(t *testing.T) {
	c := NewForKind(model.KindListing)
	d := completeListing()

	if _, err := c.JumpTo(2, d); !errors.Is(err, ErrJumpAhead) {
		t.Fatalf("forward jump before validation: %v", err)
	}
	if _, err := c.JumpTo(99, d); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("out of range: %v", err)
	}
	for i := 0; i < 5; i++ { // -> step 3
		if _, err := c.Advance(d); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.JumpTo(0, d); err != nil {
		t.Fatalf("jump back: %v", err)
	}
	if pos, err := c.JumpTo(3, d); err != nil || pos != (Position{Step: 3}) {
		t.Fatalf("jump to furthest: %+v %v", pos, err)
	}
	if _, err := c.JumpTo(4, d); !errors.Is(err, ErrJumpAhead) {
		t.Fatalf("jump past furthest: %v", err)
	}
}

func TestJumpTo_RechecksSkippedSteps(t *testing.T) {
	c := NewForKind(model.KindListing)
	d := completeListing()
	for i := 0; i < 5; i++ { // -> step 3
		if _, err := c.Advance(d); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.JumpTo(0, d); err != nil {
		t.Fatal(err)
	}

	d.Details.Description = ""
	_, err := c.JumpTo(3, d)
	var inc *IncompleteError
	if !errors.As(err, &inc) || inc.Position != (Position{Step: 1, Substep: 1}) || inc.Unmet[0] != "details.description" {
		t.Fatalf("jump over cleared step: %v", err)
	}
	if c.Position() != (Position{}) {
		t.Fatalf("position moved on refused jump: %+v", c.Position())
	}
	if _, err := c.JumpTo(1, d); err != nil {
		t.Fatalf("jump to the incomplete step itself: %v", err)
	}
}

func TestReviewSteps(t *testing.T) {
	c := NewForKind(model.KindReview)
	d := completeListing()
	d.Details.StayedFrom = "2024-05-10"
	d.Details.StayedTo = "2024-05-01"

	for i := 0; i < 2; i++ {
		if _, err := c.Advance(d); err != nil {
			t.Fatal(err)
		}
	}
	_, err := c.Advance(d)
	var inc *IncompleteError
	if !errors.As(err, &inc) || inc.Unmet[0] != "details.stayedTo" {
		t.Fatalf("inverted stay dates: %v", err)
	}
	d.Details.StayedTo = "2024-05-12"
	if _, err := c.Advance(d); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Advance(d); err != nil { // features
		t.Fatal(err)
	}
	_, err = c.Advance(d) // ratings.scores
	if !errors.As(err, &inc) || len(inc.Unmet) != 2 {
		t.Fatalf("missing ratings: %v", err)
	}
}
