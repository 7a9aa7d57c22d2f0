package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Cart is the session-scoped mapping of product ID to quantity. It is an
// explicitly passed value: operations load it, transform it, and store it
// back, never mutating ambient session state.
type Cart struct {
	Items     map[int64]int
	CreatedAt time.Time
}

// cartWire is the session-store representation: product IDs are decimal
// strings and the creation timestamp is RFC 3339.
type cartWire struct {
	Cart      map[string]int `json:"cart"`
	CreatedAt time.Time      `json:"cart_created_at"`
}

// NewCart creates an empty cart stamped with the given creation time.
func NewCart(now time.Time) *Cart {
	return &Cart{
		Items:     make(map[int64]int),
		CreatedAt: now.UTC(),
	}
}

// MarshalJSON encodes the cart in the session-store wire format.
func (c *Cart) MarshalJSON() ([]byte, error) {
	items := make(map[string]int, len(c.Items))
	for id, qty := range c.Items {
		items[strconv.FormatInt(id, 10)] = qty
	}
	return json.Marshal(cartWire{Cart: items, CreatedAt: c.CreatedAt.UTC()})
}

// UnmarshalJSON decodes the session-store wire format. Keys that are not
// decimal integers are rejected rather than dropped, since they indicate a
// corrupted session record.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var w cartWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	items := make(map[int64]int, len(w.Cart))
	for key, qty := range w.Cart {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q in cart: %w", key, err)
		}
		items[id] = qty
	}

	c.Items = items
	c.CreatedAt = w.CreatedAt
	return nil
}

// IsExpired reports whether the cart's creation time is older than ttl.
func (c *Cart) IsExpired(ttl time.Duration, now time.Time) bool {
	if c.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(c.CreatedAt) > ttl
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Count returns the total number of units across all lines.
func (c *Cart) Count() int {
	var n int
	for _, qty := range c.Items {
		n += qty
	}
	return n
}

// ProductIDs returns the referenced product IDs in ascending order, the
// order in which checkout locks rows.
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
