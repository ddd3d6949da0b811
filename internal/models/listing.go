package models

import "fmt"

// Origin says which catalog a displayed record belongs to.
type Origin int

const (
	OriginLocal Origin = iota
	OriginExternal
)

func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginExternal:
		return "external"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Badge is the label painters show on a card.
func (o Origin) Badge() string {
	if o == OriginLocal {
		return "Our Collection"
	}
	return "TMDb"
}

// ClassifiedRecord is a record tagged exactly once with its origin.
//
// TargetID is the identifier navigation uses: the local id for local records,
// the external id for external ones. Consumers must not re-derive the origin.
type ClassifiedRecord struct {
	Origin   Origin
	TargetID int
	Record   MovieRecord
}

// IsLocal reports whether the record belongs to the local catalog.
func (c ClassifiedRecord) IsLocal() bool { return c.Origin == OriginLocal }

// PageDescriptor is the pagination state of a listing. Both fields are at least 1.
type PageDescriptor struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// NewPageDescriptor clamps both values to at least 1.
func NewPageDescriptor(current, total int) PageDescriptor {
	return PageDescriptor{CurrentPage: max(current, 1), TotalPages: max(total, 1)}
}

// HasPrevious reports whether a previous page exists.
func (p PageDescriptor) HasPrevious() bool { return p.CurrentPage > 1 }

// HasNext reports whether a next page exists.
func (p PageDescriptor) HasNext() bool { return p.CurrentPage < p.TotalPages }

// Listing is one merged page of results.
type Listing struct {
	Items      []ClassifiedRecord
	Pagination PageDescriptor
	// Generation identifies the load that produced this listing.
	Generation uint64
}

// Empty reports whether there is nothing to show. This is not an error.
func (l Listing) Empty() bool { return len(l.Items) == 0 }

// Count returns how many items of each origin the listing holds.
func (l Listing) Count() (local, external int) {
	for _, item := range l.Items {
		if item.IsLocal() {
			local++
		} else {
			external++
		}
	}
	return local, external
}
