package telegram

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dealhound/dealhound/internal/domain"
)

var (
	ErrMissingValue  = errors.New("option requires a value")
	ErrUnknownOption = errors.New("unknown option")
)

// ParseFindCommand parses the argument string of /find (or a plain
// message) into a search request:
//
//	strymon ob-1 --uk --strict --sources ebay,gumtree --pages 2 --location bristol
//
// Option order is free; everything that is not an option belongs to the
// search term.
func ParseFindCommand(args string) (domain.SearchRequest, error) {
	var req domain.SearchRequest
	var termParts []string

	fields := strings.Fields(args)
	for i := 0; i < len(fields); i++ {
		f := fields[i]

		if !strings.HasPrefix(f, "--") {
			termParts = append(termParts, f)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimPrefix(f, "--"), "=")
		takeValue := func() (string, error) {
			if hasValue {
				return value, nil
			}
			if i+1 >= len(fields) {
				return "", ErrMissingValue
			}
			i++
			return fields[i], nil
		}

		switch strings.ToLower(name) {
		case "uk":
			req.Options.UKOnly = true
		case "strict":
			req.Options.Strict = true
		case "sources":
			v, err := takeValue()
			if err != nil {
				return req, err
			}
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					req.Options.Sources = append(req.Options.Sources, s)
				}
			}
		case "pages":
			v, err := takeValue()
			if err != nil {
				return req, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return req, ErrMissingValue
			}
			req.Options.MaxPages = n
		case "location":
			v, err := takeValue()
			if err != nil {
				return req, err
			}
			req.Location = v
		default:
			return req, ErrUnknownOption
		}
	}

	req.Term = strings.Join(termParts, " ")
	return req, nil
}
