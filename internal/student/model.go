package student

import (
	"strings"
	"time"

	"rollcall/internal/face"
)

// Student is a registered student. Mobile number, roll number and email are
// each globally unique when present; empty means absent and is stored as NULL.
type Student struct {
	ID           int64           `json:"id"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	MobileNumber string          `json:"mobileNumber,omitempty"`
	DOB          string          `json:"dob,omitempty"`
	RollNo       string          `json:"rollNo,omitempty"`
	Email        string          `json:"email,omitempty"`
	Course       string          `json:"course,omitempty"`
	Photo        string          `json:"photo"`
	Descriptor   face.Descriptor `json:"descriptor"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// DisplayName is the name shown in duplicate-conflict payloads.
func (s *Student) DisplayName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// DescriptorRef is the slice of a student row needed for the face scan.
type DescriptorRef struct {
	ID         int64
	Name       string
	RollNo     string
	Descriptor face.Descriptor
}
