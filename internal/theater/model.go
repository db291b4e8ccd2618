package theater

// Genre is the closed set of play categories that carry a pricing formula.
type Genre uint8

const (
	// GenreUnrecognized marks a play whose type string is outside the known set.
	GenreUnrecognized Genre = iota
	// GenreTragedy prices by a base amount plus a per-head charge above capacity.
	GenreTragedy
	// GenreComedy prices by a base amount, a per-head charge and an over-capacity surcharge.
	GenreComedy
)

// ParseGenre maps a play type string to its Genre. Matching is exact.
func ParseGenre(value string) Genre {
	switch value {
	case "tragedy":
		return GenreTragedy
	case "comedy":
		return GenreComedy
	default:
		return GenreUnrecognized
	}
}

// String returns the wire representation of the genre.
func (g Genre) String() string {
	switch g {
	case GenreTragedy:
		return "tragedy"
	case GenreComedy:
		return "comedy"
	default:
		return "unrecognized"
	}
}

// Play describes a production that performances reference by identifier.
type Play struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Genre resolves the play type into the closed Genre set.
func (p Play) Genre() Genre {
	return ParseGenre(p.Type)
}

// Plays is the caller-owned lookup from play identifier to Play.
type Plays map[string]Play

// Lookup returns the play registered under id.
func (p Plays) Lookup(id string) (Play, bool) {
	play, ok := p[id]
	return play, ok
}

// Performance is one showing billed on an invoice.
type Performance struct {
	PlayID   string `json:"playID"`
	Audience int    `json:"audience"`
}

// Invoice lists the performances billed to a customer, in statement order.
type Invoice struct {
	Customer     string        `json:"customer"`
	Performances []Performance `json:"performances"`
}
