package services

import (
	"errors"
)

var (
	ErrInvalidDueDate = errors.New("invalid date format, use YYYY-MM-DD or leave blank")
	ErrInvalidFormat  = errors.New("invalid import file")
)
