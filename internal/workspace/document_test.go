package workspace

import (
	"encoding/json"
	"testing"
)

func TestSectionDocumentPreservesUnknownKeys(t *testing.T) {
	raw := []byte(`{
		"title": "Canteen menu",
		"pdf_urls": ["https://example.com/menu.pdf"],
		"theme": {"accent": "#ff8800"},
		"restaurantLocation": "Sibiu",
		"only_delivery": true,
		"slots": [{"time": "10:30", "duration": "15 min"}]
	}`)

	var doc SectionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.RestaurantLocation != "Sibiu" || !doc.OnlyDelivery {
		t.Fatalf("owned fields not decoded: %+v", doc)
	}

	doc.RestaurantLastUpdated = "2026-08-28"
	doc.Restaurant = &Restaurant{Name: "Restaurant Hermann", Tagline: "4.5 ⭐ · €€ - medium"}

	out, err := json.Marshal(&doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var round map[string]json.RawMessage
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	for _, key := range []string{"title", "pdf_urls", "theme", "restaurant", "restaurantLastUpdated"} {
		if _, ok := round[key]; !ok {
			t.Fatalf("key %s lost in round trip: %s", key, out)
		}
	}
	var theme map[string]string
	if err := json.Unmarshal(round["theme"], &theme); err != nil || theme["accent"] != "#ff8800" {
		t.Fatalf("nested unknown value mangled: %s", round["theme"])
	}
}

func TestSectionDocumentDoesNotInventOwnedFields(t *testing.T) {
	var doc SectionDocument
	if err := json.Unmarshal([]byte(`{"title": "x"}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(&doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var round map[string]json.RawMessage
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	for _, key := range []string{"restaurant", "restaurantLastUpdated", "restaurantLocation", "slots", "only_delivery"} {
		if _, ok := round[key]; ok {
			t.Fatalf("round trip invented key %s: %s", key, out)
		}
	}
}

func TestEffectiveLocationFallbacks(t *testing.T) {
	var doc SectionDocument
	if err := json.Unmarshal([]byte(`{"location": "Cluj"}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := doc.EffectiveLocation("Sibiu"); got != "Cluj" {
		t.Fatalf("legacy location key should win over fallback, got %q", got)
	}

	doc.RestaurantLocation = "  Brasov "
	if got := doc.EffectiveLocation("Sibiu"); got != "Brasov" {
		t.Fatalf("owned field should win, got %q", got)
	}

	empty := SectionDocument{}
	if got := empty.EffectiveLocation("Sibiu"); got != "Sibiu" {
		t.Fatalf("fallback expected, got %q", got)
	}
}

func TestSlotsOrDefault(t *testing.T) {
	empty := SectionDocument{}
	slots := empty.SlotsOrDefault()
	if len(slots) != 2 || slots[0].Time != "10:30" || slots[1].Time != "11:30" {
		t.Fatalf("unexpected default slots: %v", slots)
	}

	doc := SectionDocument{Slots: []Slot{{Time: "12:00", Duration: "30 min"}}}
	slots = doc.SlotsOrDefault()
	if len(slots) != 1 || slots[0].Time != "12:00" {
		t.Fatalf("configured slots should win: %v", slots)
	}
}
