package models

import (
	"encoding/json"
	"time"
)

// SubmissionStatus describes how a request reached the backend
type SubmissionStatus string

const (
	SubmissionCreated   SubmissionStatus = "created"   // Backend accepted the request
	SubmissionSimulated SubmissionStatus = "simulated" // No backend call was made
)

// SubmissionRecord is the immutable record of a submitted wizard
type SubmissionRecord struct {
	ID             string           `json:"id"`
	ReferenceCode  string           `json:"reference_code"`
	SessionID      string           `json:"session_id"`
	IdempotencyKey string           `json:"-"`
	UserType       UserType         `json:"user_type"`
	Mode           Mode             `json:"mode"`
	EstimatedCost  float64          `json:"estimated_cost"`
	Payload        json.RawMessage  `json:"payload"`
	RemoteID       string           `json:"remote_id,omitempty"`
	Status         SubmissionStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
}

// SubmissionSummary is shown on the confirmation screen
type SubmissionSummary struct {
	ReferenceCode      string   `json:"reference_code"`
	Title              string   `json:"title"`
	UserType           UserType `json:"user_type"`
	Mode               Mode     `json:"mode"`
	Category           string   `json:"category,omitempty"`
	BaseProject        string   `json:"base_project,omitempty"`
	EstimatedCost      float64  `json:"estimated_cost"`
	EstimatedCostLabel string   `json:"estimated_cost_label"`
	Services           int      `json:"services"`
	Hardware           int      `json:"hardware"`
	Priority           string   `json:"priority"`
	SubmittedAt        string   `json:"submitted_at"`
}

// SubmissionFilters defines filters for listing submissions
type SubmissionFilters struct {
	UserType UserType
	Limit    int
	Offset   int
}
