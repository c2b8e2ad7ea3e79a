package models

import "gorm.io/gorm"

// ContractStatusActive marks contracts eligible for new service requests
const ContractStatusActive = "ATIVO"

// Contract is a service contract belonging to a client
type Contract struct {
	gorm.Model
	CNPJ      string `json:"cnpj" gorm:"index"`
	Numero    string `json:"numero"`
	Descricao string `json:"descricao"`
	Data      string `json:"data"` // dd/mm/aaaa
	Status    string `json:"status"`
	FotoLink  string `json:"foto_link"` // reference photo shown before the location question
}
