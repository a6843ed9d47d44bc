package domain

// Location is a business unit the identity can operate within.
type Location struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	OwnerID int64  `json:"owner_id"`
	Active  bool   `json:"active"`
}

// LocationInput carries the editable fields of a location for create and update calls.
type LocationInput struct {
	Name    string `form:"name"    json:"name"    validate:"required,min=1,max=120"`
	Address string `form:"address" json:"address" validate:"max=255"`
	City    string `form:"city"    json:"city"    validate:"max=100"`
	Active  bool   `form:"active"  json:"active"`
}

// IndexOf returns the position of the location with the given id or -1.
func IndexOf(locations []Location, id int64) int {
	for i := range locations {
		if locations[i].ID == id {
			return i
		}
	}

	return -1
}
