package changelog

import "time"

// Operation is the kind of change an entry records.
type Operation string

const (
	OpCreateAction  Operation = "CREATE_ACTION"
	OpDeleteAction  Operation = "DELETE_ACTION"
	OpUpdateDetail  Operation = "UPDATE_DETAIL"
	OpCreateContact Operation = "CREATE_CONTACT"
	OpDeleteContact Operation = "DELETE_CONTACT"
	OpUpdateContact Operation = "UPDATE_CONTACT"
)

// Entry is one append-only audit record. Updates holds whatever
// payload the write carried; it is stored as-is and never interpreted.
type Entry struct {
	Operation Operation `bson:"operation" json:"operation"`
	Updates   any       `bson:"updates" json:"updates"`
	Date      time.Time `bson:"date" json:"date"`
	User      string    `bson:"user" json:"user"`
}
