package domain

import "time"

// State is a station's position in the conversion state machine.
type State string

const (
	StateDiscovered     State = "discovered"
	StateParsed         State = "parsed"
	StateValidated      State = "validated"
	StateTabularWritten State = "tabular_written"
	StateGriddedWritten State = "gridded_written"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// StationEvent is a structured progress or error record emitted to the
// reporter. Kind is set for failures and soft warnings.
type StationEvent struct {
	RunID   string    `json:"run_id"`
	Station string    `json:"station"`
	State   State     `json:"state"`
	Stage   State     `json:"stage,omitempty"`
	Kind    string    `json:"kind,omitempty"`
	Message string    `json:"message,omitempty"`
	Rows    int       `json:"rows,omitempty"`
	Time    time.Time `json:"time"`
}

// NewStationEvent creates an event stamped at the given time, in UTC.
func NewStationEvent(runID, station string, state State, at time.Time) StationEvent {
	return StationEvent{
		RunID:   runID,
		Station: station,
		State:   state,
		Time:    at.UTC(),
	}
}
