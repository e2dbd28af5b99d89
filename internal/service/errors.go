package service

import "errors"

var (
	ErrSessionNotFound  = errors.New("assessment session not found")
	ErrTaxonomyNotFound = errors.New("taxonomy not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrSubjectNotLinked = errors.New("child is not linked to this parent")
	ErrSessionForbidden = errors.New("assessment belongs to another subject")
	ErrTaxonomyInFlux   = errors.New("taxonomy is being republished")
	ErrLinkCodeInvalid  = errors.New("link code is unknown, expired or already used")
)
