package db

import "errors"

var (
	ErrImageNotFound = errors.New("image not found")
	ErrDuplicateKey  = errors.New("duplicate key violation")
)
