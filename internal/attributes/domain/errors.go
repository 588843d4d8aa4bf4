package domain

import "errors"

var (
	ErrNotFound      = errors.New("attribute not found")
	ErrDuplicateName = errors.New("attribute name already exists")
)
