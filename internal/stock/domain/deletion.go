package domain

// Disposition is the deletion safety verdict for a product
type Disposition string

const (
	DispositionBlocked         Disposition = "blocked"
	DispositionCascadeRequired Disposition = "cascade_required"
	DispositionSafe            Disposition = "safe"
)

// BlockReason names the table holding the reference that blocks deletion
type BlockReason string

const (
	BlockedBySalesInvoices    BlockReason = "sales_invoice_items"
	BlockedByDeliveryChallans BlockReason = "delivery_challan_items"
)

// BatchRef identifies a batch that a cascade would remove
type BatchRef struct {
	ID          string `db:"id" json:"id"`
	BatchNumber string `db:"batch_number" json:"batch_number"`
}

// DeletionCheck is the structured result of a deletion safety check.
// Message is filled in by the presentation layer from MessageKey.
type DeletionCheck struct {
	ProductID   string      `json:"product_id"`
	Disposition Disposition `json:"disposition"`
	Reason      BlockReason `json:"reason,omitempty"`
	Batches     []BatchRef  `json:"batches,omitempty"`
	BatchCount  int         `json:"batch_count"`
	Message     string      `json:"message,omitempty"`
}

// Blocked builds a blocked verdict
func Blocked(productID string, reason BlockReason) *DeletionCheck {
	return &DeletionCheck{ProductID: productID, Disposition: DispositionBlocked, Reason: reason}
}

// CascadeRequired builds a verdict listing the batches a forced delete removes
func CascadeRequired(productID string, batches []BatchRef) *DeletionCheck {
	return &DeletionCheck{
		ProductID:   productID,
		Disposition: DispositionCascadeRequired,
		Batches:     batches,
		BatchCount:  len(batches),
	}
}

// Safe builds a verdict for a product with no batches and no references
func Safe(productID string) *DeletionCheck {
	return &DeletionCheck{ProductID: productID, Disposition: DispositionSafe, Batches: []BatchRef{}}
}

// BatchIDs returns the ids of the listed batches
func (c *DeletionCheck) BatchIDs() []string {
	ids := make([]string, len(c.Batches))
	for i, b := range c.Batches {
		ids[i] = b.ID
	}
	return ids
}

// MessageKey is the i18n key of the operator guidance for this verdict
func (c *DeletionCheck) MessageKey() string {
	switch c.Disposition {
	case DispositionBlocked:
		return "deletion.blocked." + string(c.Reason)
	case DispositionCascadeRequired:
		return "deletion.cascade_required"
	default:
		return "deletion.safe"
	}
}

// Cascade steps in execution order. Each step removes rows that reference
// rows removed by a later step, so no step leaves a dangling reference.
const (
	StepBatchDocuments      = "batch_documents"
	StepBatchTransactions   = "inventory_transactions_by_batch"
	StepBatchExpenses       = "finance_expenses"
	StepBatches             = "batches"
	StepProductTransactions = "inventory_transactions_by_product"
	StepProductFiles        = "product_files"
	StepProduct             = "products"
)

// CascadeSteps lists the steps in the order they run
var CascadeSteps = []string{
	StepBatchDocuments,
	StepBatchTransactions,
	StepBatchExpenses,
	StepBatches,
	StepProductTransactions,
	StepProductFiles,
	StepProduct,
}

// DeletedRows is the row count removed by one cascade step
type DeletedRows struct {
	Step string `json:"step"`
	Rows int64  `json:"rows"`
}

// DeletionReport describes a committed cascade
type DeletionReport struct {
	ProductID string        `json:"product_id"`
	BatchIDs  []string      `json:"batch_ids"`
	Steps     []DeletedRows `json:"steps"`
}

// RowCounts returns the per-step counts keyed by step name
func (r *DeletionReport) RowCounts() map[string]int64 {
	counts := make(map[string]int64, len(r.Steps))
	for _, s := range r.Steps {
		counts[s.Step] += s.Rows
	}
	return counts
}

// Outcome is the terminal state of a delete request
type Outcome string

const (
	OutcomeDeleted Outcome = "deleted"
	OutcomeBlocked Outcome = "blocked"
	OutcomeAborted Outcome = "aborted"
)

// DeletionResult is returned by a delete request. Blocked and aborted
// requests carry the check that stopped them and no report.
type DeletionResult struct {
	Outcome Outcome         `json:"outcome"`
	Check   *DeletionCheck  `json:"check"`
	Report  *DeletionReport `json:"report,omitempty"`
}
