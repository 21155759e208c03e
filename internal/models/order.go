package models

import "time"

type Order struct {
	ID                    int64       `json:"id"`
	UserID                string      `json:"user_id"`
	OrdererName           string      `json:"orderer_name"`
	Phone                 *string     `json:"phone"`
	PackageTier           *string     `json:"package_tier"`
	PageCount             *int32      `json:"page_count"`
	TotalPrice            *int64      `json:"total_price"`
	IsDisadvantaged       bool        `json:"is_disadvantaged"`
	IsSchool              bool        `json:"is_school"`
	UploadedFilePaths     []string    `json:"-"`
	CertificatePath       *string     `json:"-"`
	TranslatedFilePath    *string     `json:"-"`
	Status                OrderStatus `json:"status"`
	CreatedAt             time.Time   `json:"created_at"`
	EstimatedDeliveryDate *time.Time  `json:"estimated_delivery_date"`
}

// NewOrder is the row written by the submission pipeline; ID and CreatedAt come from the database.
type NewOrder struct {
	UserID            string
	OrdererName       string
	Phone             *string
	PackageTier       string
	IsDisadvantaged   bool
	IsSchool          bool
	UploadedFilePaths []string
	CertificatePath   *string
}

// OrderSummary is the list projection used by the applicant and admin list endpoints.
type OrderSummary struct {
	ID                    int64       `json:"id"`
	UserID                string      `json:"user_id,omitempty"`
	OrdererName           string      `json:"orderer_name"`
	Status                OrderStatus `json:"status"`
	CreatedAt             time.Time   `json:"created_at"`
	PageCount             *int32      `json:"page_count"`
	PackageTier           *string     `json:"package_tier"`
	TotalPrice            *int64      `json:"total_price"`
	EstimatedDeliveryDate *time.Time  `json:"estimated_delivery_date"`
}

type OrderStatus string

const (
	PendingPageCountStatus           OrderStatus = "Pending Page Count"
	PendingPackageConfirmationStatus OrderStatus = "Pending Package Confirmation"
	PendingPaymentStatus             OrderStatus = "Pending Payment"
	InProgressStatus                 OrderStatus = "In Progress"
	DeliveredStatus                  OrderStatus = "Delivered"
	RejectedStatus                   OrderStatus = "Rejected"
)

const InitialStatus = PendingPageCountStatus

var statusFlow = []OrderStatus{
	PendingPageCountStatus,
	PendingPackageConfirmationStatus,
	PendingPaymentStatus,
	InProgressStatus,
	DeliveredStatus,
}

func (s OrderStatus) IsValid() bool {
	if s == RejectedStatus {
		return true
	}
	for _, status := range statusFlow {
		if status == s {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == DeliveredStatus || s == RejectedStatus
}

// AllowedPredecessors lists the statuses from which an order may move to s
// without an admin override. Forward moves are one step at a time; Rejected
// is reachable from every non-terminal status.
func (s OrderStatus) AllowedPredecessors() []OrderStatus {
	if s == RejectedStatus {
		predecessors := make([]OrderStatus, 0, len(statusFlow))
		for _, status := range statusFlow {
			if !status.IsTerminal() {
				predecessors = append(predecessors, status)
			}
		}
		return predecessors
	}
	for i, status := range statusFlow {
		if status == s && i > 0 {
			return []OrderStatus{statusFlow[i-1]}
		}
	}
	return nil
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, predecessor := range next.AllowedPredecessors() {
		if predecessor == s {
			return true
		}
	}
	return false
}

// GuardStatuses is the set an order must be in for an unforced patch setting s.
// Re-sending the current status is not a transition and always passes.
func (s OrderStatus) GuardStatuses() []OrderStatus {
	return append(s.AllowedPredecessors(), s)
}

func StatusesAsStrings(statuses []OrderStatus) []string {
	result := make([]string, 0, len(statuses))
	for _, status := range statuses {
		result = append(result, string(status))
	}
	return result
}

// OrderPatch carries the fields an operator may change. Nil fields are left untouched.
type OrderPatch struct {
	Status                *OrderStatus
	PageCount             *int32
	TotalPrice            *int64
	PackageTier           *string
	EstimatedDeliveryDate *time.Time
	TranslatedFilePath    *string
}

func (p OrderPatch) IsEmpty() bool {
	return p.Status == nil && p.PageCount == nil && p.TotalPrice == nil && p.PackageTier == nil &&
		p.EstimatedDeliveryDate == nil && p.TranslatedFilePath == nil
}
