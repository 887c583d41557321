// Package entity contains the core business objects of the project.
package entity

// AddressSnapshot is an immutable point-in-time copy of address data
// embedded into an order at creation time, insulating historical orders
// from later edits to the customer's live address records.
type AddressSnapshot struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// IsZero reports whether the snapshot carries no address at all.
func (a AddressSnapshot) IsZero() bool {
	return a == AddressSnapshot{}
}
