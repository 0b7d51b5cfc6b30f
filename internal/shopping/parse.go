package shopping

import (
	"fmt"
	"strconv"
	"strings"
)

var knownUnits = map[string]string{
	"g": "g", "gr": "g", "gram": "g", "grams": "g",
	"kg": "kg", "kilo": "kg", "kilos": "kg",
	"mg": "mg",
	"l": "L", "liter": "L", "liters": "L", "litre": "L", "litres": "L",
	"ml": "ml", "cl": "cl", "dl": "dl",
	"lb": "lb", "lbs": "lb", "oz": "oz",
	"gal": "gal", "gallon": "gal", "gallons": "gal",
	"pint": "pint", "pints": "pint",
	"cup": "cup", "cups": "cup",
	"tbsp": "tbsp", "tsp": "tsp",
	"pc": "pcs", "pcs": "pcs", "piece": "pcs", "pieces": "pcs",
	"pack": "pack", "packs": "pack",
	"can": "can", "cans": "can",
	"bottle": "bottle", "bottles": "bottle",
	"box": "box", "boxes": "box",
	"dozen": "dozen",
}

// ParseDraft turns a one-line, chat-style request into a Draft.
//
//	"2 kg tomatoes @SuperMart #very ripe !"
//
// yields qty 2, unit kg, name "tomatoes", store "SuperMart", notes "very ripe"
// and urgent. "+gf" marks the item gluten free. A missing quantity means 1.
func ParseDraft(line string) (Draft, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Draft{}, fmt.Errorf("empty item")
	}

	d := Draft{Qty: 1}
	if q, ok := parseQty(fields[0]); ok {
		d.Qty = q
		fields = fields[1:]
		if len(fields) > 0 {
			if u, ok := knownUnits[strings.ToLower(fields[0])]; ok && len(fields) > 1 {
				d.Unit = u
				fields = fields[1:]
			}
		}
	}

	var name, store, notes []string
	target := &name
	for _, f := range fields {
		switch {
		case f == "!":
			d.Urgent = true
		case strings.EqualFold(f, "+gf"):
			d.GF = true
		case strings.HasPrefix(f, "@"):
			target = &store
			if rest := strings.TrimPrefix(f, "@"); rest != "" {
				*target = append(*target, rest)
			}
		case strings.HasPrefix(f, "#"):
			target = &notes
			if rest := strings.TrimPrefix(f, "#"); rest != "" {
				*target = append(*target, rest)
			}
		default:
			*target = append(*target, f)
		}
	}

	d.Name = strings.Join(name, " ")
	d.Store = strings.Join(store, " ")
	d.Notes = strings.Join(notes, " ")
	if err := d.Validate(); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func parseQty(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.ToLower(s), "x")
	s = strings.ReplaceAll(s, ",", ".")
	q, err := strconv.ParseFloat(s, 64)
	if err != nil || !ValidQty(q) {
		return 0, false
	}
	return q, true
}
