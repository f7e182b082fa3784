package enum

// Order status codes. Codes are the stable machine keys for rows in
// order_statuses; display names and colors live in the data.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusPreparing = "PREPARING"
	StatusReady     = "READY"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// Defaults used when the PENDING row has to be bootstrapped at checkout.
const (
	StatusPendingDisplayName = "Pending"
	StatusPendingColorTag    = "warning"
)

// User roles.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)
