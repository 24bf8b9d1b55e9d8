package models

import (
	"fmt"
	"time"
)

// ApplicationStatus is the lifecycle state of a loan application.
type ApplicationStatus string

const (
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
	StatusDisbursed   ApplicationStatus = "disbursed"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusUnderReview, StatusApproved, StatusRejected, StatusDisbursed:
		return true
	}
	return false
}

// Terminal reports whether the record can still transition. A rejected
// record is terminal for that record only; the user may submit a new one.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusDisbursed
}

// LoanApplication is a single persisted application record. A user has at
// most one record in the per-user slot at any time. Fields that only exist
// in certain states are grouped: Offer is set once the application is
// approved, Disbursement once the loan is paid out.
type LoanApplication struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	FullName       string            `json:"fullName"`
	NationalID     string            `json:"nationalId"`
	Address        string            `json:"address,omitempty"`
	EmploymentType string            `json:"employmentType,omitempty"`
	MonthlyIncome  int               `json:"monthlyIncome"`
	Status         ApplicationStatus `json:"status"`
	SubmittedAt    time.Time         `json:"submittedAt"`
	CnicImageURL   string            `json:"cnicImageUrl,omitempty"`
	SelfieImageURL string            `json:"selfieImageUrl,omitempty"`

	Offer        *LoanOffer    `json:"offer,omitempty"`
	Disbursement *Disbursement `json:"disbursement,omitempty"`
}

// LoanOffer carries the financial terms attached on approval.
type LoanOffer struct {
	LoanAmount    float64   `json:"loanAmount"`
	InterestRate  float64   `json:"interestRate"` // percent, annual
	RepaymentDate time.Time `json:"repaymentDate"`
}

// Disbursement carries the fields set when the loan is paid out.
type Disbursement struct {
	MonthlyPayment int64 `json:"monthlyPayment"`
}

// Validate enforces the per-status field shape.
func (a *LoanApplication) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("application id is empty")
	}
	if a.UserID == "" {
		return fmt.Errorf("application userId is empty")
	}
	if a.MonthlyIncome < 0 {
		return fmt.Errorf("monthlyIncome must be non-negative, got %d", a.MonthlyIncome)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("unknown status %q", a.Status)
	}

	switch a.Status {
	case StatusUnderReview, StatusRejected:
		if a.Offer != nil || a.Disbursement != nil {
			return fmt.Errorf("status %q must not carry financial fields", a.Status)
		}
	case StatusApproved:
		if a.Offer == nil {
			return fmt.Errorf("approved application missing offer")
		}
		if a.Disbursement != nil {
			return fmt.Errorf("approved application must not carry disbursement")
		}
	case StatusDisbursed:
		if a.Offer == nil || a.Disbursement == nil {
			return fmt.Errorf("disbursed application missing offer or disbursement")
		}
	}
	return nil
}

// ApplicationInput is the raw form data as entered by the applicant.
// MonthlyIncome arrives as text and is parsed during validation. CnicImage
// and SelfieImage are markers for locally captured photos; on submission
// they are exchanged for hosted placeholder URLs.
type ApplicationInput struct {
	FullName       string `json:"fullName"`
	NationalID     string `json:"nationalId"`
	Address        string `json:"address,omitempty"`
	EmploymentType string `json:"employmentType,omitempty"`
	MonthlyIncome  string `json:"monthlyIncome"`
	CnicImage      string `json:"cnicImage,omitempty"`
	SelfieImage    string `json:"selfieImage,omitempty"`
}
