package model

// DashboardStats summarizes the inventory for the dashboard.
type DashboardStats struct {
	TotalEquipment int            `json:"total_equipment"`
	TotalChips     int            `json:"total_chips"`
	ChipsByCarrier map[string]int `json:"chips_by_carrier"`
}

// StatusNotSet labels items without a status in reports.
const StatusNotSet = "not set"

// CustodianCount is one row of the inventory-by-custodian report.
type CustodianCount struct {
	CustodianID *int64 `json:"custodian_id,omitempty"`
	Custodian   string `json:"custodian"`
	Items       int    `json:"items"`
}
