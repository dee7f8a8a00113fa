package wynagrodzenia

import (
	"fmt"
	"net/url"
)

const (
	FormName       = "sedlak_calculator"
	TokenField     = "sedlak_calculator[_token]"
	EarningsField  = "sedlak_calculator[earnings]"
	MonthlyField   = "sedlak_calculator[monthlyEarnings][%d]"
	monthsInAYear  = 12
	ResultSelector = "div.count-salary span"
)

// Parameters is the fixed calculator configuration submitted alongside
// every amount. The defaults reproduce a 2019 employment contract
// ("umowa o pracę") for someone over 26 working in their city of residence.
type Parameters struct {
	SelfEmployer           string `json:"selfEmployer"`
	RentAndAnnuityCost     string `json:"rentAndAnnuityCost"`
	SicknessCost           string `json:"sicknessCost"`
	HealthCost             string `json:"healthCost"`
	FPCost                 string `json:"fpCost"`
	FGSPCost               string `json:"fgspCost"`
	AccidentPercent        string `json:"accidentPercent"`
	End26Year              string `json:"end26Year"`
	EmployeePercent        string `json:"employeePercent"`
	EmployerPercent        string `json:"employerPercent"`
	OctoberIncome          string `json:"octoberIncome"`
	BusinessExpenses       string `json:"businessExpenses"`
	WorkAccidentPercent    string `json:"workAccidentPercent"`
	NonworkAccidentPercent string `json:"nonworkAccidentPercent"`
	ContractType           string `json:"contractType"`
	CalculateWay           string `json:"calculateWay"`
	Year                   string `json:"year"`
	MandateModels          string `json:"mandateModels"`
	TheSameCity            string `json:"theSameCity"`
	FreeCost               string `json:"freeCost"`
	ConstantEarnings       string `json:"constantEarnings"`
}

func DefaultParameters() Parameters {
	return Parameters{
		SelfEmployer:           "1",
		RentAndAnnuityCost:     "1",
		SicknessCost:           "1",
		HealthCost:             "1",
		FPCost:                 "1",
		FGSPCost:               "1",
		AccidentPercent:        "1.67",
		End26Year:              "1",
		EmployeePercent:        "2",
		EmployerPercent:        "1.5",
		OctoberIncome:          "1",
		BusinessExpenses:       "0",
		WorkAccidentPercent:    "1.67",
		NonworkAccidentPercent: "1.67",
		ContractType:           "work",
		CalculateWay:           "gross",
		Year:                   "2019",
		MandateModels:          "otherCompany",
		TheSameCity:            "1",
		FreeCost:               "1",
		ConstantEarnings:       "1",
	}
}

func field(name string) string {
	return fmt.Sprintf("%s[%s]", FormName, name)
}

// Values renders the parameters with their wire names. The two accident
// percentages live outside of the form namespace.
func (p Parameters) Values() url.Values {
	values := url.Values{}
	values.Set(field("selfEmployer"), p.SelfEmployer)
	values.Set(field("rentAndAnnuityCost"), p.RentAndAnnuityCost)
	values.Set(field("sicknesCost"), p.SicknessCost)
	values.Set(field("healthCost"), p.HealthCost)
	values.Set(field("FPCost"), p.FPCost)
	values.Set(field("FGSPCost"), p.FGSPCost)
	values.Set(field("accidentPercent"), p.AccidentPercent)
	values.Set(field("end26Year"), p.End26Year)
	values.Set(field("employeePercent"), p.EmployeePercent)
	values.Set(field("employerPercent"), p.EmployerPercent)
	values.Set(field("octoberIncome"), p.OctoberIncome)
	values.Set(field("businessExpenses"), p.BusinessExpenses)
	values.Set("work_accidentPercent", p.WorkAccidentPercent)
	values.Set("nonwork_accidentPercent", p.NonworkAccidentPercent)
	values.Set(field("contractType"), p.ContractType)
	values.Set(field("calculateWay"), p.CalculateWay)
	values.Set(field("year"), p.Year)
	values.Set(field("mandateModels"), p.MandateModels)
	values.Set(field("theSameCity"), p.TheSameCity)
	values.Set(field("freeCost"), p.FreeCost)
	values.Set(field("constantEarnings"), p.ConstantEarnings)
	return values
}

// EarningsValues is the amount placed in the aggregate earnings field and
// in each of the twelve monthly fields.
func EarningsValues(amount string) url.Values {
	values := url.Values{}
	values.Set(EarningsField, amount)
	for month := 0; month < monthsInAYear; month++ {
		values.Set(fmt.Sprintf(MonthlyField, month), amount)
	}
	return values
}
