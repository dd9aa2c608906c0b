package transaction

// CreateTransactionRequest is the POST /transactions body.
type CreateTransactionRequest struct {
	CompanyID string `json:"company_id" validate:"required,uuid"`
	ClientID  string `json:"client_id" validate:"required,uuid"`
	Amount    string `json:"amount" validate:"required"`
	Currency  string `json:"currency" validate:"required,len=3,alpha"`
	Type      string `json:"type" validate:"required,oneof=cc ach other"`

	TransactionTypeID string `json:"transaction_type_id" validate:"omitempty,uuid"`
	AccountID         string `json:"account_id" validate:"omitempty,uuid"`
	GatewayID         string `json:"gateway_id" validate:"omitempty,uuid"`

	GatewayTransactionID string `json:"transaction_id" validate:"omitempty,max=128"`
	ParentTransactionID  string `json:"parent_transaction_id" validate:"omitempty,max=128"`
	ReferenceID          string `json:"reference_id" validate:"omitempty,max=128"`

	Message   string `json:"message" validate:"omitempty,max=255"`
	Status    string `json:"status" validate:"omitempty"`
	DateAdded string `json:"date_added" validate:"omitempty"`
}

// UpdateTransactionRequest is the PUT /transactions/:id body; absent fields
// stay unchanged. The client is immutable and therefore absent.
type UpdateTransactionRequest struct {
	Amount   *string `json:"amount"`
	Currency *string `json:"currency" validate:"omitempty,len=3,alpha"`
	Type     *string `json:"type" validate:"omitempty,oneof=cc ach other"`

	TransactionTypeID *string `json:"transaction_type_id" validate:"omitempty,uuid"`
	AccountID         *string `json:"account_id" validate:"omitempty,uuid"`
	GatewayID         *string `json:"gateway_id" validate:"omitempty,uuid"`

	GatewayTransactionID *string `json:"transaction_id" validate:"omitempty,max=128"`
	ParentTransactionID  *string `json:"parent_transaction_id" validate:"omitempty,max=128"`
	ReferenceID          *string `json:"reference_id" validate:"omitempty,max=128"`

	Message   *string `json:"message" validate:"omitempty,max=255"`
	Status    *string `json:"status"`
	DateAdded *string `json:"date_added"`
}

// ApplyRequest is the POST /transactions/:id/apply body.
type ApplyRequest struct {
	Amounts []ApplyRequestEntry `json:"amounts" validate:"required,min=1,dive"`
	Date    string              `json:"date" validate:"omitempty"`
}

// ApplyRequestEntry pairs one invoice with the amount to consume.
type ApplyRequestEntry struct {
	InvoiceID string `json:"invoice_id" validate:"required,uuid"`
	Amount    string `json:"amount" validate:"required"`
}

// UnapplyRequest is the POST /transactions/:id/unapply body; empty
// InvoiceIDs reverses every application.
type UnapplyRequest struct {
	InvoiceIDs []string `json:"invoice_ids" validate:"omitempty,dive,uuid"`
}

// ApplyCreditsRequest is the POST /clients/:id/apply-credits body. Amounts
// optionally caps the allocation per invoice; when present, Currency is
// required and every named invoice must be in it.
type ApplyCreditsRequest struct {
	CompanyID string            `json:"company_id" validate:"required,uuid"`
	Currency  string            `json:"currency" validate:"omitempty,len=3,alpha"`
	Amounts   map[string]string `json:"amounts" validate:"omitempty"`
	// OldestFirst consumes credit sources ascending by date added instead
	// of enumeration order.
	OldestFirst bool `json:"oldest_first"`
}
