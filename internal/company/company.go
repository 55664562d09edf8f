package company

import "time"

// OperationType classifies the kind of outreach an action records.
type OperationType string

const (
	OperationCall            OperationType = "CALL"
	OperationEmail           OperationType = "EMAIL"
	OperationOnlineMeeting   OperationType = "ONLINE_MEETING"
	OperationInPersonMeeting OperationType = "IN_PERSON_MEETING"
)

// Action is a single outreach entry embedded in a company document.
type Action struct {
	ID          string        `bson:"id" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Operation   OperationType `bson:"operation" json:"operation"`
	Date        time.Time     `bson:"date" json:"date"`
	User        string        `bson:"user" json:"user"`
}

// Contact is a person embedded in a company document.
type Contact struct {
	ID          string `bson:"id" json:"id"`
	FirstName   string `bson:"first_name" json:"firstName"`
	LastName    string `bson:"last_name" json:"lastName"`
	Gender      string `bson:"gender" json:"gender"`
	Email       string `bson:"email" json:"email"`
	PhoneNumber string `bson:"phone_number" json:"phoneNumber"`
	Potential   bool   `bson:"potential" json:"potential"`
	DontBother  bool   `bson:"dont_bother" json:"dontBother"`
	IsPrimary   bool   `bson:"is_primary" json:"isPrimary"`
	Notes       string `bson:"notes" json:"notes"`
}

// Company is the root CRM document. Contacts, actions and the
// financial history are embedded; reminders reference a company by id
// only and live in their own collection.
type Company struct {
	ID               string     `bson:"id" json:"id"`
	LegalName        string     `bson:"legal_name" json:"legalName"`
	IsActive         bool       `bson:"is_active" json:"isActive"`
	IsExistingClient bool       `bson:"is_existing_client" json:"isExistingClient"`
	AddedDate        *time.Time `bson:"added_date,omitempty" json:"addedDate,omitempty"`
	PhoneNumber      string     `bson:"phone_number" json:"companyPhoneNumber"`
	Email            string     `bson:"email" json:"companyEmail"`
	Website          string     `bson:"website" json:"companyWebsite"`
	Description      string     `bson:"description" json:"description"`
	StreetAddress    string     `bson:"street_address" json:"streetAddress"`
	City             string     `bson:"city" json:"city"`
	StateOrProvince  string     `bson:"state_or_province" json:"stateOrProvince"`
	PostalCode       string     `bson:"postal_code" json:"postalCode"`
	Country          string     `bson:"country" json:"country"`
	Contacts         []Contact  `bson:"contacts" json:"contacts"`
	Actions          []Action   `bson:"actions" json:"actions"`
	Financials       []Snapshot `bson:"financials" json:"financials"`
}

// ActionByID finds an embedded action by its id.
func (c *Company) ActionByID(id string) (Action, bool) {
	for _, a := range c.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// ContactByID finds an embedded contact by its id.
func (c *Company) ContactByID(id string) (Contact, bool) {
	for _, ct := range c.Contacts {
		if ct.ID == id {
			return ct, true
		}
	}
	return Contact{}, false
}

// LatestFinancials returns the last snapshot in the history, or nil
// if the company has none.
func (c *Company) LatestFinancials() Snapshot {
	if len(c.Financials) == 0 {
		return nil
	}
	return c.Financials[len(c.Financials)-1]
}
