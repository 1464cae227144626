package model

import "errors"

// ErrInvalidParameter marks a programming-contract violation such as a
// negative time step or resistance. It is fatal at construction time and is
// never produced by anomaly-induced traffic.
var ErrInvalidParameter = errors.New("invalid parameter")
