package telegram

import (
	"errors"
	"testing"
)

func TestParseFindCommand(t *testing.T) {
	t.Run("bare term", func(t *testing.T) {
		req, err := ParseFindCommand("strymon ob-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Term != "strymon ob-1" {
			t.Errorf("term = %q", req.Term)
		}
	})

	t.Run("options mixed into the term", func(t *testing.T) {
		req, err := ParseFindCommand("strymon --uk ob-1 --strict")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Term != "strymon ob-1" {
			t.Errorf("term = %q", req.Term)
		}
		if !req.Options.UKOnly || !req.Options.Strict {
			t.Errorf("options = %+v", req.Options)
		}
	})

	t.Run("sources list", func(t *testing.T) {
		req, err := ParseFindCommand("pedal --sources ebay,gumtree")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(req.Options.Sources) != 2 || req.Options.Sources[0] != "ebay" || req.Options.Sources[1] != "gumtree" {
			t.Errorf("sources = %v", req.Options.Sources)
		}
	})

	t.Run("equals form", func(t *testing.T) {
		req, err := ParseFindCommand("pedal --sources=ebay --pages=3 --location=bristol")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(req.Options.Sources) != 1 || req.Options.Sources[0] != "ebay" {
			t.Errorf("sources = %v", req.Options.Sources)
		}
		if req.Options.MaxPages != 3 {
			t.Errorf("pages = %d", req.Options.MaxPages)
		}
		if req.Location != "bristol" {
			t.Errorf("location = %q", req.Location)
		}
	})

	t.Run("pages takes the next field", func(t *testing.T) {
		req, err := ParseFindCommand("pedal --pages 2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Options.MaxPages != 2 || req.Term != "pedal" {
			t.Errorf("req = %+v", req)
		}
	})

	t.Run("missing value", func(t *testing.T) {
		if _, err := ParseFindCommand("pedal --sources"); !errors.Is(err, ErrMissingValue) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("invalid page count", func(t *testing.T) {
		if _, err := ParseFindCommand("pedal --pages zero"); !errors.Is(err, ErrMissingValue) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("unknown option", func(t *testing.T) {
		if _, err := ParseFindCommand("pedal --cheapest"); !errors.Is(err, ErrUnknownOption) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		req, err := ParseFindCommand("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Term != "" {
			t.Errorf("term = %q", req.Term)
		}
	})
}
