package learning

import (
	"strings"
)

// UnknownKey is the sentinel key used when no usable identity field exists.
const UnknownKey = "unknown"

// CustomerKey identifies a customer across every source collection.
type CustomerKey string

// CropKey identifies a crop/product across every source collection.
type CropKey string

func (k CustomerKey) String() string { return string(k) }
func (k CropKey) String() string     { return string(k) }

// PairKey identifies one customer x crop statistics record.
type PairKey struct {
	Customer CustomerKey `json:"customer_key"`
	Crop     CropKey     `json:"crop_key"`
}

// String renders the pair as a single stable store key.
func (p PairKey) String() string {
	return string(p.Customer) + "|" + string(p.Crop)
}

// CustomerIdentity carries the raw identity fields of an order record.
// Differently-shaped source collections are normalized into this one shape at
// the ingestion boundary; key derivation below is the only consumer.
type CustomerIdentity struct {
	Email       string `json:"email,omitempty"`
	CustomerID  string `json:"customer_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// CropIdentity carries the raw identity fields of a line item or harvest record.
type CropIdentity struct {
	Title     string `json:"title,omitempty"`
	ProductID string `json:"product_id,omitempty"`
}

// DeriveCustomerKey maps raw customer identity to a stable key. Preference
// order: normalized email, cleaned customer ID, normalized display name,
// then the unknown sentinel. Identical logical identity always produces an
// identical key regardless of which source collection supplied the record.
func DeriveCustomerKey(identity CustomerIdentity) CustomerKey {
	if email := strings.ToLower(strings.TrimSpace(identity.Email)); email != "" {
		return CustomerKey(email)
	}
	if id := normalizeKey(identity.CustomerID); id != "" {
		return CustomerKey(id)
	}
	if name := normalizeKey(identity.DisplayName); name != "" {
		return CustomerKey(name)
	}
	return CustomerKey(UnknownKey)
}

// DeriveCropKey maps raw crop identity to a stable key. Preference order:
// normalized product title, cleaned product ID, then the unknown sentinel.
func DeriveCropKey(identity CropIdentity) CropKey {
	if title := normalizeKey(identity.Title); title != "" {
		return CropKey(title)
	}
	if id := normalizeKey(identity.ProductID); id != "" {
		return CropKey(id)
	}
	return CropKey(UnknownKey)
}

// normalizeKey lowercases, maps every non-alphanumeric run to a single
// underscore, and trims leading/trailing underscores.
func normalizeKey(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	lastUnderscore := false
	for _, r := range raw {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}
