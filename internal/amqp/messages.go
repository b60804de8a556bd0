package amqp

import (
	"encoding/json"
	"time"
)

// ReportSavedMessage announces that a report artifact was written to disk.
// Consumers read the file from Path; the message only carries metadata.
type ReportSavedMessage struct {
	Report    string    `json:"report"`
	Path      string    `json:"path"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReportSavedMessage creates a message stamped with the current time.
func NewReportSavedMessage(report, path string, rows int) *ReportSavedMessage {
	return &ReportSavedMessage{
		Report:    report,
		Path:      path,
		Rows:      rows,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportSavedMessageFromJSON creates a message from JSON bytes
func ReportSavedMessageFromJSON(data []byte) (*ReportSavedMessage, error) {
	var msg ReportSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
