package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Item is one element of a catalog collection. Products, market prices and
// articles share the well-known fields below; everything the backend sends
// is also kept in Fields for rendering.
type Item struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Category string              `json:"category,omitempty"`
	Unit     string              `json:"unit,omitempty"`
	Price    decimal.NullDecimal `json:"price"`
	Fields   map[string]any      `json:"-"`
}

var nameKeys = []string{"name", "title", "commodity", "productName"}

func (i *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("catalog item: %w", err)
	}

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err == nil {
			fields[k] = val
		}
	}

	out := Item{Fields: fields}
	if v, ok := raw["id"]; ok {
		out.ID = scalarString(v)
	}
	for _, k := range nameKeys {
		if v, ok := raw[k]; ok {
			if s := scalarString(v); s != "" {
				out.Name = s
				break
			}
		}
	}
	if v, ok := raw["category"]; ok {
		out.Category = scalarString(v)
	}
	if v, ok := raw["unit"]; ok {
		out.Unit = scalarString(v)
	}
	for _, k := range []string{"price", "averagePrice"} {
		if v, ok := raw[k]; ok {
			var d decimal.NullDecimal
			if err := d.UnmarshalJSON(v); err == nil && d.Valid {
				out.Price = d
				break
			}
		}
	}

	*i = out
	return nil
}

func (i Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Fields)+5)
	for k, v := range i.Fields {
		out[k] = v
	}
	out["id"] = i.ID
	out["name"] = i.Name
	if i.Category != "" {
		out["category"] = i.Category
	}
	if i.Unit != "" {
		out["unit"] = i.Unit
	}
	if i.Price.Valid {
		out["price"] = i.Price.Decimal
	}
	return json.Marshal(out)
}

func scalarString(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return decimal.NewFromFloat(t).String()
	case bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}
