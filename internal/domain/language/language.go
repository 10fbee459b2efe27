package language

import "errors"

var ErrNotFound = errors.New("language not found")

// Language is immutable reference data, created by seed/migration only.
type Language struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
}
