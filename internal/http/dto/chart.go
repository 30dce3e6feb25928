package dto

import "github.com/cesargomez89/topalbums/internal/domain"

type ChartsResponse struct {
	Charts []domain.Chart `json:"charts"`
}

type HistoryResponse struct {
	Chart      domain.Chart        `json:"chart"`
	Items      []domain.HistoryRow `json:"items"`
	Pagination *Pagination         `json:"pagination"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields []ValidationError `json:"fields,omitempty"`
}
