package telemetry

import "github.com/google/uuid"

// SessionType mirrors the small set of iRacing session types the client
// cares about for analytics purposes; any other session-type string is
// carried verbatim as a SessionType value.
type SessionType string

const (
	SessionTypePractice    SessionType = "Practice"
	SessionTypeQualifying  SessionType = "Qualifying"
	SessionTypeRace        SessionType = "Race"
	SessionTypeTestSession SessionType = "Test"
)

// Session is the metadata snapshot describing the car/track/series for a
// racing session. It is generated once on the first frame of a session and
// is immutable until the next SessionStart (see session.Registry).
type Session struct {
	SessionID uuid.UUID `json:"session_id"`

	TrackID         int    `json:"track_id"`
	TrackName       string `json:"track_name"`
	TrackConfigName string `json:"track_config_name,omitempty"`
	TrackType       string `json:"track_type"`

	CarID      int    `json:"car_id"`
	CarName    string `json:"car_name"`
	CarClassID int    `json:"car_class_id"`

	SeriesID    int         `json:"series_id"`
	SessionType SessionType `json:"session_type"`
}

// NewSessionID mints a fresh random session identifier. The collector calls
// it when a source leaves Session.SessionID unset.
func NewSessionID() uuid.UUID {
	return uuid.New()
}
