package repository

import "errors"

var (
	ErrArtisanNotFound      = errors.New("artisan not found")
	ErrDemandeNotFound      = errors.New("demande not found")
	ErrDevisNotFound        = errors.New("devis not found")
	ErrContractNotFound     = errors.New("contract not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoFieldsToUpdate     = errors.New("no fields to update")
)
