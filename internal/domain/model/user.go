package model

import (
	"time"
)

// Kind partitions users into the two account populations. Emails are unique
// within a kind, not across kinds.
type Kind string

const (
	KindStudent  Kind = "student"
	KindInvestor Kind = "investor"
)

func (k Kind) Valid() bool {
	return k == KindStudent || k == KindInvestor
}

// Label is the capitalized kind used in client messages.
func (k Kind) Label() string {
	switch k {
	case KindStudent:
		return "Student"
	case KindInvestor:
		return "Investor"
	}
	return string(k)
}

// DefaultRole is the role given to newly registered users of the kind.
func (k Kind) DefaultRole() Role {
	if k == KindInvestor {
		return RoleInvestor
	}
	return RoleStudent
}

type Role string

const (
	RoleStudent  Role = "student"
	RoleInvestor Role = "investor"
	RoleAdmin    Role = "admin"
)

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

var Genders = []string{GenderMale, GenderFemale}

const (
	ExperienceBeginner     = "Beginner"
	ExperienceIntermediate = "Intermediate"
	ExperienceAdvanced     = "Advanced"
)

var ExperienceLevels = []string{ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced}

// Profile holds the free-form attributes filled in after registration.
// Which fields a user may set depends on their Kind.
type Profile struct {
	PreferredTrainingDays       string `json:"preferredTrainingDays,omitempty"`
	InfoSource                  string `json:"infoSource,omitempty"`
	NokName                     string `json:"nokName,omitempty"`
	NokRelationship             string `json:"nokRelationship,omitempty"`
	NokAddress                  string `json:"nokAddress,omitempty"`
	NokPhoneNumber              string `json:"nokPhoneNumber,omitempty"`
	LevelOfForexExperience      string `json:"levelOfForexExperience,omitempty"`
	HighestEducationAttained    string `json:"highestEducationAttained,omitempty"`
	RiskAppetite                string `json:"riskAppetite,omitempty"`
	ReferralName                string `json:"referralName,omitempty"`
	LegalKnowledgeAndAcceptance string `json:"legalKnowledgeAndAcceptance,omitempty"`
	QuestionsAndComments        string `json:"questionsAndComments,omitempty"`
	SourceOfFunds               string `json:"sourceOfFunds,omitempty"`
	AnnualIncome                string `json:"annualIncome,omitempty"`
	InvestmentGoal              string `json:"investmentGoal,omitempty"`
}

type User struct {
	ID                 string     `json:"id"`
	Kind               Kind       `json:"kind"`
	Role               Role       `json:"role"`
	FirstName          string     `json:"firstName"`
	MiddleName         string     `json:"middleName,omitempty"`
	LastName           string     `json:"lastName"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	Gender             string     `json:"gender,omitempty"`
	DOB                *time.Time `json:"DOB,omitempty"`
	PhoneNumber        string     `json:"phoneNumber,omitempty"`
	Address            string     `json:"address,omitempty"`
	CountryOfResidence string     `json:"countryOfResidence,omitempty"`
	StateOfResidence   string     `json:"stateOfResidence,omitempty"`
	Profile
	IsVerified bool      `json:"isVerified"`
	IsUpdated  bool      `json:"isUpdated"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Sanitized returns a copy safe to hand to clients.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserPage is one page of a user listing. Pages is 1 when the listing is
// unpaginated.
type UserPage struct {
	Users []*User `json:"users"`
	Count int     `json:"count"`
	Pages int     `json:"pages"`
}
