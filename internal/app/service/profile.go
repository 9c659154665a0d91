package service

import (
	"context"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/common/validate"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/model"

	validation "github.com/go-ozzo/ozzo-validation"
)

// UpdateProfileRequest carries a partial update; nil fields are left alone.
type UpdateProfileRequest struct {
	FirstName          *string `json:"firstName,omitempty"`
	MiddleName         *string `json:"middleName,omitempty"`
	LastName           *string `json:"lastName,omitempty"`
	Gender             *string `json:"gender,omitempty"`
	DOB                *string `json:"DOB,omitempty"`
	PhoneNumber        *string `json:"phoneNumber,omitempty"`
	Address            *string `json:"address,omitempty"`
	CountryOfResidence *string `json:"countryOfResidence,omitempty"`
	StateOfResidence   *string `json:"stateOfResidence,omitempty"`

	NokName         *string `json:"nokName,omitempty"`
	NokRelationship *string `json:"nokRelationship,omitempty"`
	NokAddress      *string `json:"nokAddress,omitempty"`
	NokPhoneNumber  *string `json:"nokPhoneNumber,omitempty"`
	RiskAppetite    *string `json:"riskAppetite,omitempty"`

	PreferredTrainingDays       *string `json:"preferredTrainingDays,omitempty"`
	InfoSource                  *string `json:"infoSource,omitempty"`
	LevelOfForexExperience      *string `json:"levelOfForexExperience,omitempty"`
	HighestEducationAttained    *string `json:"highestEducationAttained,omitempty"`
	ReferralName                *string `json:"referralName,omitempty"`
	LegalKnowledgeAndAcceptance *string `json:"legalKnowledgeAndAcceptance,omitempty"`
	QuestionsAndComments        *string `json:"questionsAndComments,omitempty"`

	SourceOfFunds  *string `json:"sourceOfFunds,omitempty"`
	AnnualIncome   *string `json:"annualIncome,omitempty"`
	InvestmentGoal *string `json:"investmentGoal,omitempty"`
}

// editable binds one request field to the user field it overwrites.
type editable struct {
	label string
	value *string
	dst   *string
	kinds []model.Kind
	rules []validation.Rule
}

func (e editable) allowed(kind model.Kind) bool {
	if len(e.kinds) == 0 {
		return true
	}
	for _, k := range e.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func editableFields(req *UpdateProfileRequest, u *model.User) []editable {
	student := []model.Kind{model.KindStudent}
	investor := []model.Kind{model.KindInvestor}
	return []editable{
		{label: "first name", value: req.FirstName, dst: &u.FirstName},
		{label: "middle name", value: req.MiddleName, dst: &u.MiddleName},
		{label: "last name", value: req.LastName, dst: &u.LastName},
		{label: "gender", value: req.Gender, dst: &u.Gender, rules: []validation.Rule{
			validation.Required.Error("Invalid input for gender field"),
			validate.OneOf("gender", model.Genders...),
		}},
		{label: "phone number", value: req.PhoneNumber, dst: &u.PhoneNumber},
		{label: "address", value: req.Address, dst: &u.Address},
		{label: "country of residence", value: req.CountryOfResidence, dst: &u.CountryOfResidence},
		{label: "state of residence", value: req.StateOfResidence, dst: &u.StateOfResidence},
		{label: "next of kin name", value: req.NokName, dst: &u.NokName},
		{label: "next of kin relationship", value: req.NokRelationship, dst: &u.NokRelationship},
		{label: "next of kin address", value: req.NokAddress, dst: &u.NokAddress},
		{label: "next of kin phone number", value: req.NokPhoneNumber, dst: &u.NokPhoneNumber},
		{label: "risk appetite", value: req.RiskAppetite, dst: &u.RiskAppetite},
		{label: "preferred training days", value: req.PreferredTrainingDays, dst: &u.PreferredTrainingDays, kinds: student},
		{label: "info source", value: req.InfoSource, dst: &u.InfoSource, kinds: student},
		{label: "level of forex experience", value: req.LevelOfForexExperience, dst: &u.LevelOfForexExperience, kinds: student,
			rules: []validation.Rule{validate.OneOf("level of forex experience", model.ExperienceLevels...)}},
		{label: "highest education attained", value: req.HighestEducationAttained, dst: &u.HighestEducationAttained, kinds: student},
		{label: "referral name", value: req.ReferralName, dst: &u.ReferralName, kinds: student},
		{label: "legal knowledge and acceptance", value: req.LegalKnowledgeAndAcceptance, dst: &u.LegalKnowledgeAndAcceptance, kinds: student},
		{label: "questions and comments", value: req.QuestionsAndComments, dst: &u.QuestionsAndComments, kinds: student},
		{label: "source of funds", value: req.SourceOfFunds, dst: &u.SourceOfFunds, kinds: investor},
		{label: "annual income", value: req.AnnualIncome, dst: &u.AnnualIncome, kinds: investor},
		{label: "investment goal", value: req.InvestmentGoal, dst: &u.InvestmentGoal, kinds: investor},
	}
}

// UpdateProfile applies req to the principal's own record and marks it
// updated. Fields that do not belong to the user's kind are rejected.
func (s *AccountService) UpdateProfile(ctx context.Context, principalID, targetID string, req UpdateProfileRequest) (*model.User, error) {
	if principalID != targetID {
		return nil, common.ErrForbiddenUser
	}
	user, err := s.users.FindByID(ctx, s.kind, targetID)
	if err != nil {
		return nil, err
	}

	fields := editableFields(&req, user)
	checks := make([]validate.Field, 0, len(fields))
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if !f.allowed(s.kind) {
			return nil, common.Validationf("%s cannot be updated for a %s account", f.label, s.kind)
		}
		validate.Trim(f.value)
		rules := append([]validation.Rule{validate.NoForbiddenChars(f.label)}, f.rules...)
		checks = append(checks, validate.Field{Label: f.label, Value: *f.value, Rules: rules})
	}
	if err := validate.Run(checks...); err != nil {
		return nil, err
	}
	if (req.FirstName != nil && *req.FirstName == "") || (req.LastName != nil && *req.LastName == "") {
		return nil, common.ErrMissingFields
	}

	for _, f := range fields {
		if f.value != nil {
			*f.dst = *f.value
		}
	}
	user.PhoneNumber = validate.NormalizePhone(user.PhoneNumber)
	user.NokPhoneNumber = validate.NormalizePhone(user.NokPhoneNumber)

	if req.DOB != nil {
		validate.Trim(req.DOB)
		if *req.DOB == "" {
			user.DOB = nil
		} else {
			dob, err := validate.DateOfBirth(*req.DOB)
			if err != nil {
				return nil, err
			}
			user.DOB = &dob
		}
	}

	updated, err := s.users.UpdateProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "profile updated", "user_id", updated.ID)
	return updated.Sanitized(), nil
}
