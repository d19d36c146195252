package contact

import "errors"

// ErrContactParse is returned when a contact card cannot be decoded.
var ErrContactParse = errors.New("contact card parse failed")
