package models

import "time"

// ResponseRecord is one persisted query together with the three expert
// answers. ID and Timestamp are owned by the store.
type ResponseRecord struct {
	ID              int64     `json:"id"`
	Query           string    `json:"query"`
	Expert1Response *string   `json:"expert1_response"`
	Expert2Response *string   `json:"expert2_response"`
	Expert3Response *string   `json:"expert3_response"`
	Timestamp       time.Time `json:"timestamp"`
}

// QueryRequest is the POST /query body. Query is nil when the field is
// absent, which the server rejects; an empty string is accepted.
type QueryRequest struct {
	Query *string `json:"query"`
}

type QueryResponse struct {
	Query           string `json:"query"`
	Expert1Response string `json:"expert1_response"`
	Expert2Response string `json:"expert2_response"`
	Expert3Response string `json:"expert3_response"`
}

// NewRecord builds an unsaved record from a query and the answer texts.
func NewRecord(query, r1, r2, r3 string) *ResponseRecord {
	return &ResponseRecord{
		Query:           query,
		Expert1Response: &r1,
		Expert2Response: &r2,
		Expert3Response: &r3,
	}
}

// Text dereferences a nullable column, returning "" for NULL.
func Text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
