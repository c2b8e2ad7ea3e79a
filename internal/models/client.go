package models

import "gorm.io/gorm"

// Client is a registered customer, keyed by CNPJ
type Client struct {
	gorm.Model
	CNPJ string `json:"cnpj" gorm:"uniqueIndex"`
	Nome string `json:"nome"`
}
