package sim

import "fmt"

// Kind identifies what an event does when dispatched.
type Kind uint8

const (
	KindMove Kind = iota
	KindDeath
	KindMutate
	KindImmuneResponse
)

var kindNames = [...]string{"move", "death", "mutate", "immuneResponse"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", b)
}

// Event is a scheduled action on one agent. Events never change once enqueued.
type Event struct {
	Time    float64 `json:"time"`
	Kind    Kind    `json:"kind"`
	AgentID uint64  `json:"agent"`
}

// DeathCause records why an agent died.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseStarvation
	CauseAge
)

func (c DeathCause) String() string {
	switch c {
	case CauseStarvation:
		return "starvation"
	case CauseAge:
		return "age"
	}
	return "none"
}

// MarshalText encodes the cause by name.
func (c DeathCause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a cause name.
func (c *DeathCause) UnmarshalText(b []byte) error {
	switch string(b) {
	case "starvation":
		*c = CauseStarvation
	case "age":
		*c = CauseAge
	case "none", "":
		*c = CauseNone
	default:
		return fmt.Errorf("unknown death cause %q", b)
	}
	return nil
}

// Dispatch describes the outcome of one popped event. Hooks receive one per event.
type Dispatch struct {
	Seq   uint64 `json:"seq"`
	Event Event  `json:"event"`

	// Stale is set when the target no longer existed; nothing else happened.
	Stale bool `json:"stale,omitempty"`

	// Cell the target held when the event completed; for a death, where it died.
	Row int `json:"row"`
	Col int `json:"col"`

	Moved       bool       `json:"moved,omitempty"`
	Harvest     float64    `json:"harvest,omitempty"`
	Spread      int        `json:"spread,omitempty"` // neighbors newly infected by the mover
	Caught      bool       `json:"caught,omitempty"` // mover newly infected by a neighbor
	Cleared     int        `json:"cleared,omitempty"`
	Locus       int        `json:"locus,omitempty"`
	Cause       DeathCause `json:"cause,omitempty"`
	Replacement uint64     `json:"replacement,omitempty"`
	Next        *Event     `json:"next,omitempty"` // follow-up event scheduled for the same agent
}

// NewInfections returns every infection the dispatch caused.
func (d Dispatch) NewInfections() int {
	if d.Caught {
		return d.Spread + 1
	}
	return d.Spread
}
