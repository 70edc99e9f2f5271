package ticketing

// Incident is an incident record as returned by the ticketing backend.
//
// The backend owns the record; remedyd only reads it and patches its state.
// Nothing is kept between poll cycles.
type Incident struct {
	// ID is the backend's opaque record identifier.
	ID string `json:"sys_id"`

	// Description is the free-text problem description. May be empty.
	Description string `json:"description"`

	// State is the backend's enumerated status for this record.
	State string `json:"state"`
}

// queryResponse is the wire shape of a table query.
type queryResponse struct {
	Result []Incident `json:"result"`
}

// updateRequest is the wire shape of a partial record update.
type updateRequest struct {
	State    string `json:"state"`
	Comments string `json:"comments,omitempty"`
}
