package model

import (
	"errors"
	"fmt"
	"strings"
)

// EntityKind is the closed set of record kinds addressable by generic operations.
type EntityKind string

const (
	KindMaterial    EntityKind = "material"
	KindSupplier    EntityKind = "supplier"
	KindProduct     EntityKind = "product"
	KindPurchase    EntityKind = "purchase"
	KindPrint       EntityKind = "print"
	KindSale        EntityKind = "sale"
	KindOrder       EntityKind = "order"
	KindMachine     EntityKind = "machine"
	KindReservation EntityKind = "reservation"
)

var ErrUnknownEntityKind = errors.New("unknown entity kind")

// legacy names used by older clients
var entityKindAliases = map[string]EntityKind{
	"filament": KindMaterial,
	"printer":  KindMachine,
	"schedule": KindReservation,
}

// EntityKinds lists every kind in a stable order.
var EntityKinds = []EntityKind{
	KindMaterial, KindSupplier, KindProduct, KindPurchase, KindPrint,
	KindSale, KindOrder, KindMachine, KindReservation,
}

// ParseEntityKind resolves a wire name to its kind.
func ParseEntityKind(s string) (EntityKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if k, ok := entityKindAliases[name]; ok {
		return k, nil
	}
	for _, k := range EntityKinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntityKind, s)
}
