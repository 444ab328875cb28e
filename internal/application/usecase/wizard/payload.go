package wizard

import (
	"strconv"
	"strings"

	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

func customerRequest(st *registration.WizardState) output.CustomerRequest {
	return output.CustomerRequest{
		FirstName: st.Get(registration.FieldFirstName),
		LastName:  st.Get(registration.FieldLastName),
		Email:     st.Get(registration.FieldEmail),
		Phone:     st.Get(registration.FieldPhone),
		Country:   st.Get(registration.FieldCountry),
		Address:   st.Get(registration.FieldAddress),
	}
}

func businessRequest(st *registration.WizardState) output.BusinessRequest {
	return output.BusinessRequest{
		CustomerID:          st.Get(registration.FieldCustomerID),
		BusinessName:        st.Get(registration.FieldBusinessName),
		BusinessType:        st.Get(registration.FieldBusinessType),
		BusinessSize:        st.Get(registration.FieldBusinessSize),
		Subdomain:           st.Get(registration.FieldSubdomain),
		ExpectedRevenue:     st.Get(registration.FieldExpectedRevenue),
		BusinessDescription: st.Get(registration.FieldBusinessDescription),
		Branches:            parseBranches(st.Get(registration.FieldBranches)),
	}
}

func parseBranches(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

func paymentRequest(st *registration.WizardState, plan registration.Plan) output.PaymentRequest {
	refs := st.Refs()
	return output.PaymentRequest{
		PlanID:               plan.ID,
		FirstName:            st.Get(registration.FieldFirstName),
		LastName:             st.Get(registration.FieldLastName),
		Email:                st.Get(registration.FieldEmail),
		Phone:                st.Get(registration.FieldPhone),
		Address:              st.Get(registration.FieldAddress),
		Country:              st.Get(registration.FieldCountry),
		BusinessName:         st.Get(registration.FieldBusinessName),
		BusinessType:         st.Get(registration.FieldBusinessType),
		BusinessSize:         st.Get(registration.FieldBusinessSize),
		Subdomain:            st.Get(registration.FieldSubdomain),
		Branches:             strconv.Itoa(parseBranches(st.Get(registration.FieldBranches))),
		ExpectedRevenue:      st.Get(registration.FieldExpectedRevenue),
		BusinessDescription:  st.Get(registration.FieldBusinessDescription),
		Password:             st.Get(registration.FieldPassword),
		PasswordConfirmation: st.Get(registration.FieldConfirmPassword),
		CustomerID:           refs.CustomerID,
		BusinessID:           refs.BusinessID,
	}
}
