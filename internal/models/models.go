package models

import "fmt"

// ItemKind discriminates the two bookable catalog collections.
type ItemKind string

const (
	KindEvent       ItemKind = "event"
	KindDestination ItemKind = "destination"
)

func (k ItemKind) Valid() bool {
	return k == KindEvent || k == KindDestination
}

// Item is a bookable catalog entry. Capacity counters are mutated only
// through the capacity accountant, never directly.
type Item struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Kind              ItemKind          `json:"kind"`
	UnitPrice         int64             `json:"price"`
	TotalCapacity     int               `json:"capacity"`
	RemainingCapacity int               `json:"remaining"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// ItemRef points a reservation at its catalog item.
type ItemRef struct {
	Kind ItemKind `json:"kind"`
	ID   string   `json:"id"`
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// Client is the contact info captured with a booking request.
type Client struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (c Client) FullName() string {
	return c.FirstName + " " + c.LastName
}
