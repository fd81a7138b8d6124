package voicefast

import "errors"

// ErrNotConnected is returned when audio is sent before the gateway has an
// open connection.
var ErrNotConnected = errors.New("voice gateway is not connected")
