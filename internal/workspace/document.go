package workspace

import (
	"encoding/json"
	"strings"
)

// Restaurant is the recommendation block rendered by the displays.
type Restaurant struct {
	Name    string `json:"name"`
	Tagline string `json:"tagline"`
}

// Slot is a time-of-day window during which a section takes over the screen.
type Slot struct {
	Time     string `json:"time"`
	Duration string `json:"duration"`
}

// defaultSlots is applied when a section document carries no slot list.
var defaultSlots = []Slot{
	{Time: "10:30", Duration: "15 min"},
	{Time: "11:30", Duration: "15 min"},
}

// SectionDocument is a team's section content file. The content editors own
// most of the document; this tool owns only the recommendation fields. Every
// key it does not understand is preserved byte-for-byte across a
// read-modify-write cycle.
type SectionDocument struct {
	RestaurantLocation    string
	OnlyDelivery          bool
	RestaurantLastUpdated string
	Restaurant            *Restaurant
	Slots                 []Slot

	extra map[string]json.RawMessage
}

var ownedKeys = []string{
	"restaurantLocation",
	"only_delivery",
	"restaurantLastUpdated",
	"restaurant",
	"slots",
}

// UnmarshalJSON splits the document into owned fields and preserved extras.
func (d *SectionDocument) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["restaurantLocation"]; ok {
		if err := json.Unmarshal(raw, &d.RestaurantLocation); err != nil {
			return err
		}
	}
	if raw, ok := fields["only_delivery"]; ok {
		if err := json.Unmarshal(raw, &d.OnlyDelivery); err != nil {
			return err
		}
	}
	if raw, ok := fields["restaurantLastUpdated"]; ok {
		if err := json.Unmarshal(raw, &d.RestaurantLastUpdated); err != nil {
			return err
		}
	}
	if raw, ok := fields["restaurant"]; ok {
		if err := json.Unmarshal(raw, &d.Restaurant); err != nil {
			return err
		}
	}
	if raw, ok := fields["slots"]; ok {
		if err := json.Unmarshal(raw, &d.Slots); err != nil {
			return err
		}
	}
	for _, key := range ownedKeys {
		delete(fields, key)
	}
	if len(fields) > 0 {
		d.extra = fields
	}
	return nil
}

// MarshalJSON reassembles the document: preserved extras plus owned fields.
// Owned fields are written only when set so a plain read-write round trip
// does not invent recommendation state the editors never put there.
func (d *SectionDocument) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(d.extra)+len(ownedKeys))
	for key, raw := range d.extra {
		fields[key] = raw
	}
	set := func(key string, value any) error {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		fields[key] = raw
		return nil
	}
	if d.RestaurantLocation != "" {
		if err := set("restaurantLocation", d.RestaurantLocation); err != nil {
			return nil, err
		}
	}
	if d.OnlyDelivery {
		if err := set("only_delivery", d.OnlyDelivery); err != nil {
			return nil, err
		}
	}
	if d.RestaurantLastUpdated != "" {
		if err := set("restaurantLastUpdated", d.RestaurantLastUpdated); err != nil {
			return nil, err
		}
	}
	if d.Restaurant != nil {
		if err := set("restaurant", d.Restaurant); err != nil {
			return nil, err
		}
	}
	if d.Slots != nil {
		if err := set("slots", d.Slots); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

// EffectiveLocation resolves the search location: the owned field first,
// then the editors' legacy "location" key, then the configured fallback.
func (d *SectionDocument) EffectiveLocation(fallback string) string {
	if loc := strings.TrimSpace(d.RestaurantLocation); loc != "" {
		return loc
	}
	if raw, ok := d.extra["location"]; ok {
		var legacy string
		if err := json.Unmarshal(raw, &legacy); err == nil {
			if legacy = strings.TrimSpace(legacy); legacy != "" {
				return legacy
			}
		}
	}
	return strings.TrimSpace(fallback)
}

// SlotsOrDefault returns the configured display slots, falling back to the
// standard late-morning pair when the document has none.
func (d *SectionDocument) SlotsOrDefault() []Slot {
	if len(d.Slots) > 0 {
		return d.Slots
	}
	out := make([]Slot, len(defaultSlots))
	copy(out, defaultSlots)
	return out
}
