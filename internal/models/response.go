package models

import "gorm.io/gorm"

// SurveyResponse is one persisted row of a completed intake survey.
// Multi-point surveys produce one row per reported point, sharing the
// same conversation ID.
type SurveyResponse struct {
	gorm.Model
	Timestamp      string `json:"timestamp"`
	ConversationID string `json:"conversation_id" gorm:"index"`
	ExpectedPoints string `json:"expected_points"`
	CNPJ           string `json:"cnpj"`
	Email          string `json:"email"`
	Horario        string `json:"horario"`
	Local          string `json:"local"`
	Elemento       string `json:"elemento"`
	JaTeveProblema string `json:"ja_teve_problema"`
	Video          string `json:"video"`
	Imagens        string `json:"imagens"` // drive links joined by "; "
	Adesivo        string `json:"adesivo"`
	Comentario     string `json:"comentario"`
	Responsavel    string `json:"responsavel"`
}
