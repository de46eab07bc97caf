package payload_test

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"reflect"
	"testing"

	"github.com/iliyamo/staywizard/internal/model"
	"github.com/iliyamo/staywizard/internal/payload"
)

func sample() model.CanonicalSubmission {
	price := 1200.5
	rooms := 3
	rating := 3.0
	return model.CanonicalSubmission{
		Kind:     model.KindListing,
		Contact:  model.CanonicalContact{Name: "Ann", Email: "ann@example.com", Languages: []string{"English", "German"}},
		Location: model.Location{Street: "Main 1", State: "Bavaria"},
		Media: model.Media{
			CoverPhoto: &model.MediaFile{Name: "cover.jpg", ContentType: "image/jpeg", Data: []byte("JPEGDATA")},
			Images:     []string{"https://img/1.jpg", "https://img/2.jpg"},
		},
		Details:       model.Details{Category: "Rent", PropertyType: "Apartment", Rooms: &rooms, Description: "Nice"},
		Cost:          model.Cost{Price: &price},
		Features:      model.CanonicalFeatures{Amenities: []string{"Balcony", "TV set"}},
		OverallRating: &rating,
		Promotion:     model.Promotion{Highlight: true},
	}
}

func TestEncode_OrderAndFlattening(t *testing.T) {
	p := payload.Encode(sample())
	want := []string{
		"contact.name", "contact.email", "contact.languages", "contact.languages",
		"location.street", "location.state",
		"media.coverPhoto", "media.images", "media.images",
		"details.category", "details.propertyType", "details.rooms", "details.description",
		"price", "utilitiesIncluded", "amenities", "amenities", "overallRating", "submitAnonymously",
		"promotion.highlight", "promotion.topOfList", "promotion.urgentBadge",
	}
	if got := p.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("keys:\n got %v\nwant %v", got, want)
	}
	if got := p.Get("media.images"); !reflect.DeepEqual(got, []string{"https://img/1.jpg", "https://img/2.jpg"}) {
		t.Fatalf("array order lost: %v", got)
	}
	if got := p.Get("price"); got[0] != "1200.5" {
		t.Fatalf("price = %v", got)
	}
	if got := p.Get("overallRating"); got[0] != "3" {
		t.Fatalf("overallRating = %v", got)
	}
}

func TestEncode_OmitsNilAndEmpty(t *testing.T) {
	sub := sample()
	sub.Media.Images = []string{}
	sub.Details.Rooms = nil
	sub.OverallRating = nil
	sub.Contact.Email = ""

	for _, part := range payload.Encode(sub).Parts {
		switch part.Key {
		case "media.images", "details.rooms", "overallRating", "contact.email":
			t.Fatalf("%s should be omitted", part.Key)
		}
		if part.File == nil && (part.Value == "" || part.Value == "null" || part.Value == "undefined") {
			t.Fatalf("%s encoded as placeholder %q", part.Key, part.Value)
		}
	}
}

func TestEncode_ReviewHasNoPromotion(t *testing.T) {
	sub := sample()
	sub.Kind = model.KindReview
	for _, k := range payload.Encode(sub).Keys() {
		if k == "promotion.highlight" {
			t.Fatal("review payload carries promotion options")
		}
	}
}

func TestWriteMultipart_Deterministic(t *testing.T) {
	sub := sample()
	a, ctA, err := payload.Encode(sub).Bytes("fixedboundary")
	if err != nil {
		t.Fatal(err)
	}
	b, ctB, err := payload.Encode(sub).Bytes("fixedboundary")
	if err != nil {
		t.Fatal(err)
	}
	if ctA != ctB || !bytes.Equal(a, b) {
		t.Fatal("encoding the same submission twice differs")
	}

	_, params, err := mime.ParseMediaType(ctA)
	if err != nil {
		t.Fatal(err)
	}
	r := multipart.NewReader(bytes.NewReader(a), params["boundary"])
	var names []string
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, part.FormName())
		if part.FormName() == "media.coverPhoto" {
			if part.FileName() != "cover.jpg" || part.Header.Get("Content-Type") != "image/jpeg" {
				t.Fatalf("file part headers: %v", part.Header)
			}
			data, _ := io.ReadAll(part)
			if string(data) != "JPEGDATA" {
				t.Fatalf("file data = %q", data)
			}
		}
	}
	if !reflect.DeepEqual(names, payload.Encode(sub).Keys()) {
		t.Fatalf("multipart order %v", names)
	}
}
