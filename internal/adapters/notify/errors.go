package notify

import "errors"

var ErrBrokerClosed = errors.New("event broker is closed")
