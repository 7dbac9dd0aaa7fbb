package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	ActionBuyPops      = "buy_pops"
	ActionBuyKeeps     = "buy_keeps"
	ActionSubscribe    = "subscribe"
	ActionCoffeeBundle = "coffee_bundle"
	ActionRemoveAds    = "remove_ads"
	ActionRentSpot     = "rent_spot"
)

var (
	ErrUnknownItem   = errors.New("unknown purchase item")
	ErrInvalidCoords = errors.New("please enter coordinates in the format x,y")
)

// BookingFee prices a grid spot. It belongs to the game's grid module.
type BookingFee func(x, y int) float64

// Item is a purchasable entry. Dynamic items have no fixed price.
type Item struct {
	Action  string  `json:"action"`
	Price   float64 `json:"price,omitempty"`
	Dynamic bool    `json:"dynamic,omitempty"`
}

type Catalogue struct {
	items []Item
	fee   BookingFee
}

func NewCatalogue(fee BookingFee) *Catalogue {
	return &Catalogue{
		items: []Item{
			{Action: ActionBuyPops, Price: 1},
			{Action: ActionBuyKeeps, Price: 1},
			{Action: ActionSubscribe, Price: 4.99},
			{Action: ActionCoffeeBundle, Price: 10},
			{Action: ActionRemoveAds, Price: 5},
			{Action: ActionRentSpot, Dynamic: true},
		},
		fee: fee,
	}
}

func (c *Catalogue) Items() []Item {
	return append([]Item(nil), c.items...)
}

// Price resolves the amount for an action. rent_spot needs coords "x,y".
func (c *Catalogue) Price(action, coords string) (float64, error) {
	for _, item := range c.items {
		if item.Action != action {
			continue
		}
		if !item.Dynamic {
			return item.Price, nil
		}
		x, y, err := ParseCoords(coords)
		if err != nil {
			return 0, err
		}
		if c.fee == nil {
			return 0, errors.New("booking fee not configured")
		}
		return c.fee(x, y), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownItem, action)
}

// ParseCoords reads grid coordinates in the form "x,y".
func ParseCoords(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidCoords
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid x: %v", ErrInvalidCoords, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid y: %v", ErrInvalidCoords, err)
	}
	return x, y, nil
}

// ActionFromDescription turns a label like "Coffee Bundle" into "coffee_bundle".
func ActionFromDescription(description string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(description)), " ", "_")
}
