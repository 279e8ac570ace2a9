package model

import "encoding/json"

// Menu is the menu document. Entries are kept as raw JSON so fields the
// front-end adds survive a round trip.
type Menu struct {
	Categories []json.RawMessage `json:"categories"`
	Products   []json.RawMessage `json:"products"`
}

// EmptyMenu returns a menu with no categories and no products
func EmptyMenu() Menu {
	return Menu{Categories: []json.RawMessage{}, Products: []json.RawMessage{}}
}
