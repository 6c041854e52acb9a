package common

import "errors"

var (
	ErrorInvalidValue  = errors.New("invalid value")
	ErrorInvalidConfig = errors.New("invalid config")
	ErrorNotConnected  = errors.New("not connected")
)
