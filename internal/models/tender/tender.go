package tender

import "time"

type Status string

const (
	StatusOpen      Status = "Open"
	StatusClosed    Status = "Closed"
	StatusEvaluated Status = "Evaluated"
	StatusFinalized Status = "Finalized"
)

// Tender is the stored entity. Winner stays empty until the tender is Finalized.
type Tender struct {
	ID            int64
	Creator       string
	Description   string
	MaxPrice      int64
	Deadline      time.Time
	WeightPrice   int64
	WeightQuality int64
	Status        Status
	Winner        string
	CreatedAt     time.Time
}

type TenderRequest struct {
	Description   string `json:"description" validate:"required"`
	MaxPrice      int64  `json:"maxPrice" validate:"required,gt=0"`
	DeadlineDays  int64  `json:"deadlineDays" validate:"required,gt=0"`
	WeightPrice   int64  `json:"weightPrice" validate:"min=0,max=100"`
	WeightQuality int64  `json:"weightQuality" validate:"min=0,max=100"`
}

type TenderResponse struct {
	ID            int64     `json:"id"`
	Creator       string    `json:"creator"`
	Description   string    `json:"description"`
	MaxPrice      int64     `json:"maxPrice"`
	Deadline      time.Time `json:"deadline"`
	WeightPrice   int64     `json:"weightPrice"`
	WeightQuality int64     `json:"weightQuality"`
	Status        Status    `json:"status"`
	Winner        string    `json:"winner,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
