package api

import (
	"github.com/starford/weekboard/internal/boardservice"
	"github.com/starford/weekboard/internal/codec"
	"github.com/starford/weekboard/internal/render"
)

// OpenSessionRequest is the request body for opening a week for editing.
type OpenSessionRequest struct {
	Index *int `json:"index" example:"3" validate:"required"`
}

// SaveSessionRequest is the request body for submitting the edit form.
// ID may be empty to target whatever session is open.
type SaveSessionRequest struct {
	ID   string     `json:"id" example:"5b0e..."`
	Form codec.Form `json:"form" validate:"required"`
}

// DeleteSessionRequest is the request body for resetting the open week.
type DeleteSessionRequest struct {
	ID      string `json:"id" example:"5b0e..."`
	Confirm bool   `json:"confirm" example:"true"`
}

// OpenSessionResponse is the edit form of the opened week (aliased from the domain layer).
type OpenSessionResponse = boardservice.Opened

// SessionResultResponse is returned after a save or reset (aliased from the domain layer).
type SessionResultResponse = boardservice.Result

// BoardResponse is the declarative board.
type BoardResponse = render.Board

// NavResponse lists the navigation sections.
type NavResponse struct {
	Sections []render.Section `json:"sections" validate:"required"`
}

// ImportResponse is returned after a successful import.
type ImportResponse struct {
	Checksum string `json:"checksum" example:"abc123..." validate:"required"`
}
