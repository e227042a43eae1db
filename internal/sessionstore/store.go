// Package sessionstore persists the three scalars needed to restore a
// session across restarts: the bound IP, the last validated credential code
// and the last selected filial. Absence of any key is a valid state.
package sessionstore

import "context"

// Keys for the persisted session state.
const (
	KeyIP         = "expedition_mobile_ip"
	KeyCredencial = "expedition_mobile_credential"
	KeyFilial     = "expedition_mobile_filial"
)

// Store is a narrow key-value contract. Get returns an empty string for an
// absent key, not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
