package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CourierID identifies one of the delivery companies orders can be routed to.
type CourierID string

const (
	CourierBosta    CourierID = "bosta"
	CourierAramex   CourierID = "aramex"
	CourierKhazenly CourierID = "khazenly"
)

func (c CourierID) Valid() bool {
	switch c {
	case CourierBosta, CourierAramex, CourierKhazenly:
		return true
	}
	return false
}

// LocalityCandidate is one entry of a courier's reference locality set:
// either a city (ParentRef empty) or a district belonging to a city. Name is
// the courier-facing label; AltName, when present, is an alternative
// transliteration scored independently during resolution. CourierRef is the
// identifier the courier's API expects back.
type LocalityCandidate struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Courier    CourierID          `bson:"courier" json:"courier"`
	CourierRef string             `bson:"courier_ref" json:"courier_ref"`
	Name       string             `bson:"name" json:"name"`
	AltName    string             `bson:"alt_name,omitempty" json:"alt_name,omitempty"`
	ParentRef  string             `bson:"parent_ref,omitempty" json:"parent_ref,omitempty"`
}

// Labels returns the candidate's scorable labels, primary name first.
func (c LocalityCandidate) Labels() []string {
	if c.AltName == "" {
		return []string{c.Name}
	}
	return []string{c.Name, c.AltName}
}

// IsCity reports whether the candidate is a top-level city entry.
func (c LocalityCandidate) IsCity() bool {
	return c.ParentRef == ""
}
